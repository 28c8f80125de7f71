package feed

import (
	"context"
	"errors"

	"github.com/rustyeddy/tradedash/model"
)

// ErrNotProvided is returned for datasets a schema does not carry.
var ErrNotProvided = errors.New("dataset not provided by this schema")

// Flat reads the single-object schema: one GET without an action returns the
// stats fields with lower-cased names plus an embedded trade list.
type Flat struct {
	client *Client
	order  model.Order
}

// NewFlat wraps c for the flat schema. order is how the embedded trade list
// is sorted.
func NewFlat(c *Client, order model.Order) *Flat {
	return &Flat{client: c, order: order}
}

// Bundle fetches the object once and splits it into stats and trades.
func (f *Flat) Bundle(ctx context.Context) (model.Snapshot, []model.Trade, error) {
	body, err := f.client.get(ctx, Request{})
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	r, err := model.DecodeRecord(body)
	if err != nil {
		return model.Snapshot{}, nil, &DecodeError{Err: err}
	}

	// Some deployments still wrap the object in an envelope.
	if inner, ok := r["data"].(map[string]any); ok {
		if status := r.String(envelopeStatus); status != StatusSuccess {
			return model.Snapshot{}, nil, &RemoteError{Status: status, Message: r.Text(envelopeMessage, "Unknown error")}
		}
		r = model.Record(inner)
	}

	rs, _ := r.Records(model.Trades)
	return model.NewSnapshot(r), model.NewTrades(rs), nil
}

// LiveStats returns the stats half of Bundle.
func (f *Flat) LiveStats(ctx context.Context) (model.Snapshot, error) {
	s, _, err := f.Bundle(ctx)
	return s, err
}

// TradeHistory returns the trades half of Bundle, cut to limit.
func (f *Flat) TradeHistory(ctx context.Context, limit int) ([]model.Trade, error) {
	_, trades, err := f.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	return model.Limit(trades, limit, f.order), nil
}

// DailyReports is not part of the flat schema.
func (f *Flat) DailyReports(context.Context, int) ([]model.DailyReport, error) {
	return nil, ErrNotProvided
}

var (
	envelopeStatus  = model.Field{Name: "envelope status", Keys: []string{"status"}}
	envelopeMessage = model.Field{Name: "envelope message", Keys: []string{"message"}}
)
