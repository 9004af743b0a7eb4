// Package archive is an external collaborator to the streaming core: it only
// consumes ledger snapshots and never feeds anything back. The core does not
// import it; cmd/trader wires it when a DSN is configured.
package archive

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm/clause"

	"main/internal/model"
	"main/pkg/conn"
)

// OrderRecord is the persisted order row. Prices are stored as strings to
// keep exact decimal representation.
type OrderRecord struct {
	ID        int64  `gorm:"primaryKey"`
	Symbol    string `gorm:"index"`
	Price     string
	Qty       string
	Side      string
	Type      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderRecord) TableName() string {
	return "orders"
}

// Archiver upserts order snapshots into PostgreSQL.
type Archiver struct {
	client *conn.Client
}

// New migrates the orders table and builds an archiver.
func New(client *conn.Client) (*Archiver, error) {
	if client == nil || client.DB() == nil {
		return nil, errors.New("archive: nil client")
	}
	if err := client.DB().AutoMigrate(&OrderRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate orders")
	}
	return &Archiver{client: client}, nil
}

// Run consumes snapshots until the channel closes or the context is done.
// Persist errors are logged and skipped; the feed is not interrupted.
func (a *Archiver) Run(ctx context.Context, snapshots <-chan []model.Order) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := a.persist(snapshot); err != nil {
				logs.Errorf("archive snapshot, err: %+v", err)
			}
		}
	}
}

func (a *Archiver) persist(orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	records := make([]OrderRecord, 0, len(orders))
	for _, order := range orders {
		records = append(records, OrderRecord{
			ID:        order.ID,
			Symbol:    order.Symbol.Canonical(),
			Price:     order.Price.String(),
			Qty:       order.Qty.String(),
			Side:      order.Side.String(),
			Type:      order.Type.String(),
			Status:    order.Status.String(),
			CreatedAt: order.CreatedAt,
			UpdatedAt: time.Now(),
		})
	}
	return a.client.DB().
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&records).Error
}
