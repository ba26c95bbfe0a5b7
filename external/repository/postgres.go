package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxcal/voxcal/internal/repository"
)

const defaultListLimit = 50

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

const conversationColumns = `id, session_id, user_id, status, started_at, ended_at, client_ip, user_agent, events_created,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = conversations.id) AS message_count`

func scanConversation(row pgx.Row) (*repository.Conversation, error) {
	var c repository.Conversation
	err := row.Scan(&c.ID, &c.SessionID, &c.UserID, &c.Status, &c.StartedAt, &c.EndedAt,
		&c.ClientIP, &c.UserAgent, &c.EventsCreated, &c.MessageCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) CreateConversation(ctx context.Context, input repository.CreateConversationInput) (*repository.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO conversations (session_id, user_id, started_at, client_ip, user_agent, status)
		 VALUES ($1, $2, $3, $4, $5, 'active')
		 RETURNING `+conversationColumns,
		input.SessionID, input.UserID, input.StartedAt, input.ClientIP, input.UserAgent)
	return scanConversation(row)
}

func (r *PostgresRepository) FinalizeConversation(ctx context.Context, input repository.FinalizeConversationInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conversations SET status = $2, ended_at = $3 WHERE id = $1 AND status = 'active'`,
		input.ConversationID, input.Status, input.EndedAt)
	return err
}

func (r *PostgresRepository) GetConversation(ctx context.Context, conversationID string) (*repository.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, conversationID)
	c, err := scanConversation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *PostgresRepository) GetConversationBySessionID(ctx context.Context, sessionID string) (*repository.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE session_id = $1`, sessionID)
	c, err := scanConversation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *PostgresRepository) ListConversations(ctx context.Context, input repository.ListConversationsInput) ([]repository.Conversation, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE ($1::uuid IS NULL OR user_id = $1)
		 ORDER BY started_at DESC LIMIT $2 OFFSET $3`,
		input.UserID, limit, input.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ConversationStats(ctx context.Context, userID *string) (*repository.Stats, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'error'),
			(SELECT COUNT(*) FROM calendar_events e
				JOIN conversations c2 ON c2.id = e.conversation_id
				WHERE $1::uuid IS NULL OR c2.user_id = $1),
			(SELECT COUNT(*) FROM messages m
				JOIN conversations c3 ON c3.id = m.conversation_id
				WHERE $1::uuid IS NULL OR c3.user_id = $1)
		 FROM conversations WHERE $1::uuid IS NULL OR user_id = $1`,
		userID)
	var s repository.Stats
	if err := row.Scan(&s.TotalConversations, &s.Active, &s.Completed, &s.Errors,
		&s.TotalCalendarEvents, &s.TotalMessages); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) AppendMessage(ctx context.Context, input repository.AppendMessageInput) error {
	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (conversation_id, role, content, ts) VALUES ($1, $2, $3, $4)`,
		input.ConversationID, input.Role, input.Content, ts)
	return err
}

func (r *PostgresRepository) ListMessagesByConversationID(ctx context.Context, conversationID string) ([]repository.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, ts
		 FROM messages WHERE conversation_id = $1 ORDER BY ts ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Message
	for rows.Next() {
		var m repository.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) RecordCalendarEvent(ctx context.Context, input repository.RecordCalendarEventInput) (*repository.CalendarEventRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO calendar_events (conversation_id, provider_event_id, summary, description, start_time, end_time, attendee_name, html_link)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, conversation_id, provider_event_id, summary, description, start_time, end_time, attendee_name, html_link, created_at`,
		input.ConversationID, input.ProviderEventID, input.Summary, input.Description,
		input.StartTime, input.EndTime, input.AttendeeName, input.HTMLLink)
	var rec repository.CalendarEventRecord
	if err := row.Scan(&rec.ID, &rec.ConversationID, &rec.ProviderEventID, &rec.Summary, &rec.Description,
		&rec.StartTime, &rec.EndTime, &rec.AttendeeName, &rec.HTMLLink, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET events_created = events_created + 1 WHERE id = $1`,
		input.ConversationID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) ListCalendarEvents(ctx context.Context, input repository.ListCalendarEventsInput) ([]repository.CalendarEventRecord, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.conversation_id, e.provider_event_id, e.summary, e.description, e.start_time, e.end_time, e.attendee_name, e.html_link, e.created_at
		 FROM calendar_events e
		 JOIN conversations c ON c.id = e.conversation_id
		 WHERE ($1::uuid IS NULL OR c.user_id = $1)
		 ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`,
		input.UserID, limit, input.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalendarEvents(rows)
}

func (r *PostgresRepository) ListCalendarEventsByConversationID(ctx context.Context, conversationID string) ([]repository.CalendarEventRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, conversation_id, provider_event_id, summary, description, start_time, end_time, attendee_name, html_link, created_at
		 FROM calendar_events WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalendarEvents(rows)
}

func scanCalendarEvents(rows pgx.Rows) ([]repository.CalendarEventRecord, error) {
	var list []repository.CalendarEventRecord
	for rows.Next() {
		var rec repository.CalendarEventRecord
		if err := rows.Scan(&rec.ID, &rec.ConversationID, &rec.ProviderEventID, &rec.Summary, &rec.Description,
			&rec.StartTime, &rec.EndTime, &rec.AttendeeName, &rec.HTMLLink, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) UpsertUserByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ($1)
		 ON CONFLICT (email) DO UPDATE SET last_login = NOW()
		 RETURNING id, email, token_sealed, created_at, last_login`,
		email)
	var u repository.User
	if err := row.Scan(&u.ID, &u.Email, &u.TokenSealed, &u.CreatedAt, &u.LastLogin); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, userID string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, token_sealed, created_at, last_login FROM users WHERE id = $1`, userID)
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.TokenSealed, &u.CreatedAt, &u.LastLogin)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) SaveUserToken(ctx context.Context, userID, sealedToken string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET token_sealed = $2, last_login = NOW() WHERE id = $1`,
		userID, sealedToken)
	return err
}

func (r *PostgresRepository) ClearUserToken(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET token_sealed = '' WHERE id = $1`, userID)
	return err
}

func (r *PostgresRepository) CreateAuthSession(ctx context.Context, session repository.AuthSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		session.Token, session.UserID, session.ExpiresAt)
	return err
}

func (r *PostgresRepository) GetUserByAuthToken(ctx context.Context, token string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT u.id, u.email, u.token_sealed, u.created_at, u.last_login
		 FROM auth_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1 AND s.expires_at > NOW()`,
		token)
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.TokenSealed, &u.CreatedAt, &u.LastLogin)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE token = $1`, token)
	return err
}
