package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/vidtube/internal/model"
)

// SubscriptionRepo encapsulates queries on channel subscriptions.
type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Toggle unsubscribes subscriberID from channelID if subscribed and
// subscribes otherwise.  subscribed reports the resulting state.  A missing
// channel yields ErrNotFound.
func (r *SubscriptionRepo) Toggle(ctx context.Context, subscriberID, channelID uint64) (sub *model.Subscription, subscribed bool, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?", subscriberID, channelID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		res, err = tx.ExecContext(ctx,
			"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?, ?)", subscriberID, channelID)
		if err != nil {
			if isMissingReference(err) {
				return ErrNotFound
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s := &model.Subscription{ID: uint64(id), SubscriberID: subscriberID, ChannelID: channelID}
		if err := tx.QueryRowContext(ctx, "SELECT created_at FROM subscriptions WHERE id = ?", s.ID).Scan(&s.CreatedAt); err != nil {
			return err
		}
		sub, subscribed = s, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sub, subscribed, nil
}

// Subscribers lists the users subscribed to channelID, newest first.
func (r *SubscriptionRepo) Subscribers(ctx context.Context, channelID uint64) ([]model.Subscription, error) {
	const q = `SELECT s.id, s.subscriber_id, s.channel_id, s.created_at,
		u.id, u.username, u.full_name, u.avatar
		FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = ?
		ORDER BY s.created_at DESC, s.id DESC`
	return r.list(ctx, q, channelID, func(s *model.Subscription, u *model.UserSummary) { s.Subscriber = u })
}

// Channels lists the channels subscriberID is subscribed to, newest first.
func (r *SubscriptionRepo) Channels(ctx context.Context, subscriberID uint64) ([]model.Subscription, error) {
	const q = `SELECT s.id, s.subscriber_id, s.channel_id, s.created_at,
		u.id, u.username, u.full_name, u.avatar
		FROM subscriptions s JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = ?
		ORDER BY s.created_at DESC, s.id DESC`
	return r.list(ctx, q, subscriberID, func(s *model.Subscription, u *model.UserSummary) { s.Channel = u })
}

func (r *SubscriptionRepo) list(ctx context.Context, q string, id uint64, attach func(*model.Subscription, *model.UserSummary)) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var u model.UserSummary
		if err := rows.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt,
			&u.ID, &u.Username, &u.FullName, &u.Avatar); err != nil {
			return nil, err
		}
		attach(&s, &u)
		out = append(out, s)
	}
	return out, rows.Err()
}
