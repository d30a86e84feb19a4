package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps activity records in the notifications, profile_views and
// posts tables created by the shared profile store migrations.
type Postgres struct {
	db     dbx.DBTX
	closer func() error
	now    func() time.Time
}

func NewPostgres(db dbx.DBTX) *Postgres {
	return &Postgres{db: db, closer: func() error { return nil }, now: utcNow}
}

// OpenPostgres connects with the pgx driver and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := profilestore.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	p := NewPostgres(db)
	p.closer = db.Close
	return p, nil
}

func (p *Postgres) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	n, err := prepareNotification(n, p.now())
	if err != nil {
		return "", err
	}

	query :=
		`INSERT INTO notifications (id, user_id, type, title, message, related_user_id, related_post_id, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		 `

	_, err = p.db.ExecContext(ctx, query, n.ID, n.UserID, string(n.Type), n.Title, n.Message,
		n.RelatedUserID, n.RelatedPostID, n.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return n.ID, nil
}

func (p *Postgres) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	query :=
		`SELECT id, user_id, type, title, message, related_user_id, related_post_id, read, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2
		 `

	rows, err := p.db.QueryContext(ctx, query, userID, limitOr(limit, DefaultNotificationLimit))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n   models.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message,
			&n.RelatedUserID, &n.RelatedPostID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		n.Type = models.NotificationType(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (p *Postgres) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// TrackProfileView inserts the view unless the same pair already has one
// since the start of the day. The check and the insert are one statement.
func (p *Postgres) TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error) {
	v, ok, err := prepareView(viewedUserID, viewerUserID, viewer, p.now())
	if err != nil || !ok {
		return false, err
	}

	var snap any
	if v.ViewerProfile != nil {
		raw, err := json.Marshal(v.ViewerProfile)
		if err != nil {
			return false, fmt.Errorf("encode viewer profile: %w", err)
		}
		snap = raw
	}

	query :=
		`INSERT INTO profile_views (id, viewed_user_id, viewer_user_id, viewer_profile, created_at)
		 SELECT $1::text, $2::text, $3::text, $4::jsonb, $5::timestamptz
		 WHERE NOT EXISTS (
		   SELECT 1 FROM profile_views
		   WHERE viewed_user_id = $2::text AND viewer_user_id = $3::text AND created_at >= $6::timestamptz
		 )
		 `

	res, err := p.db.ExecContext(ctx, query, v.ID, v.ViewedUserID, v.ViewerUserID, snap, v.CreatedAt, dayStart(v.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (p *Postgres) ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error) {
	query :=
		`SELECT id, viewed_user_id, viewer_user_id, viewer_profile, created_at
		 FROM profile_views WHERE viewed_user_id = $1
		 ORDER BY created_at DESC LIMIT $2
		 `

	rows, err := p.db.QueryContext(ctx, query, userID, limitOr(limit, DefaultProfileViewLimit))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.ProfileView
	for rows.Next() {
		var (
			v    models.ProfileView
			snap []byte
		)
		if err := rows.Scan(&v.ID, &v.ViewedUserID, &v.ViewerUserID, &snap, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(snap) > 0 {
			if err := json.Unmarshal(snap, &v.ViewerProfile); err != nil {
				return nil, fmt.Errorf("decode viewer profile %s: %w", v.ID, err)
			}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (p *Postgres) CreatePost(ctx context.Context, post models.Post) (string, error) {
	post, err := preparePost(post, p.now())
	if err != nil {
		return "", err
	}
	likes := post.Likes
	if likes == nil {
		likes = []string{}
	}
	rawLikes, err := json.Marshal(likes)
	if err != nil {
		return "", fmt.Errorf("encode likes: %w", err)
	}

	query :=
		`INSERT INTO posts (id, user_id, content, visibility, language, image_url, likes, comments, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 `

	_, err = p.db.ExecContext(ctx, query, post.ID, post.UserID, post.Content, string(post.Visibility),
		post.Language, post.ImageURL, rawLikes, post.Comments, post.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return post.ID, nil
}

const postColumns = `id, user_id, content, visibility, language, image_url, likes, comments, created_at, updated_at`

func (p *Postgres) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	query := `SELECT ` + postColumns + `
		 FROM posts WHERE user_id = $1
		 ORDER BY created_at DESC
		 `
	return p.queryPosts(ctx, query, userID)
}

func (p *Postgres) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	query := `SELECT ` + postColumns + `
		 FROM posts WHERE visibility = $1
		 ORDER BY created_at DESC LIMIT $2
		 `
	return p.queryPosts(ctx, query, string(models.VisibilityPublic), limitOr(limit, DefaultPublicPostLimit))
}

func (p *Postgres) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		var (
			post       models.Post
			visibility string
			rawLikes   []byte
		)
		if err := rows.Scan(&post.ID, &post.UserID, &post.Content, &visibility, &post.Language,
			&post.ImageURL, &rawLikes, &post.Comments, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		post.Visibility = models.Visibility(visibility)
		if len(rawLikes) > 0 {
			if err := json.Unmarshal(rawLikes, &post.Likes); err != nil {
				return nil, fmt.Errorf("decode likes of post %s: %w", post.ID, err)
			}
		}
		if len(post.Likes) == 0 {
			post.Likes = nil
		}
		out = append(out, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	return p.closer()
}
