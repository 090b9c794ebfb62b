package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradesim/src/database"
	"tradesim/src/model"
)

const tradeBatchSize = 500

// TradeRepository persists trades together with their orders and profit
// snapshots. Orders are only written through their owning trade.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main read/write database.
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// SaveAll inserts new trades in batches.
func (r *TradeRepository) SaveAll(ctx context.Context, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		CreateInBatches(&trades, tradeBatchSize).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "SaveAll",
			"trades": len(trades),
		}).WithError(err).Error("Failed to save trades")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "TradeRepository",
		"op":     "SaveAll",
		"trades": len(trades),
	}).Debug("Trades saved")

	return nil
}

// FindByMatchCriteria returns the active trades of scope whose spread limit,
// weekday and slot accept the given values, ordered by id.
func (r *TradeRepository) FindByMatchCriteria(
	ctx context.Context,
	scope model.Scope,
	spread decimal.Decimal,
	week time.Weekday,
	tod model.TimeOfDay,
) ([]model.Trade, error) {

	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("scope_symbol_name = ? AND scope_time_frame = ?", scope.SymbolName, scope.TimeFrame).
		Where("active = ?", true).
		Where("spread_max >= ?", spread.InexactFloat64()).
		Where("slot_week = ?", int(week)).
		Where("slot_start <= ? AND slot_end >= ?", int(tod), int(tod)).
		Order("id ASC").
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeRepository",
			"op":    "FindByMatchCriteria",
			"scope": scope.String(),
		}).WithError(err).Error("Failed to find trades by match criteria")
		return nil, err
	}

	return trades, nil
}

// FindBySymbol returns every trade of symbol with its orders.
func (r *TradeRepository) FindBySymbol(ctx context.Context, symbol string) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("opened_at ASC, id ASC")
		}).
		Where("scope_symbol_name = ?", symbol).
		Order("id ASC").
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "FindBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to find trades by symbol")
		return nil, err
	}

	return trades, nil
}

// GetByID loads the full trade aggregate or returns a NotFoundError.
func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Trade, error) {
	var trade model.Trade
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("opened_at ASC, id ASC")
		}).
		Preload("Orders.OpenTick").
		Preload("Orders.CloseTick").
		Preload("Orders.HistoricProfit", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.NotFoundError{Entity: "trade", Key: id.String()}
		}
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch trade by ID")
		return nil, err
	}

	return &trade, nil
}

// FindOpenBySymbol returns the trades of symbol that hold at least one OPEN
// order. Orders are not loaded.
func (r *TradeRepository) FindOpenBySymbol(ctx context.Context, symbol string) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("scope_symbol_name = ?", symbol).
		Where("EXISTS (SELECT 1 FROM orders WHERE orders.trade_id = trades.id AND orders.status = ?)", model.OrderStatusOpen).
		Order("id ASC").
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "FindOpenBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to find trades with open orders")
		return nil, err
	}

	return trades, nil
}

// AddOrder inserts a new order of trade with its profit snapshots. The open
// and close ticks must already be stored.
func (r *TradeRepository) AddOrder(ctx context.Context, trade *model.Trade, order *model.Order) error {
	order.TradeID = trade.ID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("OpenTick", "CloseTick").Create(order).Error; err != nil {
			return err
		}
		return tx.Model(&model.Trade{}).
			Where("id = ?", trade.ID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "AddOrder",
			"trade_id": trade.ID,
		}).WithError(err).Error("Failed to add order")
		return err
	}

	trade.Orders = append(trade.Orders, *order)
	return nil
}

// SaveOrders writes the new state of orders, their new profit snapshots and
// the trade balance in one transaction.
func (r *TradeRepository) SaveOrders(ctx context.Context, trade *model.Trade, orders []model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var snapshots []model.OrderProfit

		for _, o := range orders {
			res := tx.Model(&model.Order{}).
				Where("id = ? AND trade_id = ?", o.ID, trade.ID).
				Updates(map[string]interface{}{
					"status":        o.Status,
					"profit":        o.Profit,
					"close_tick_id": o.CloseTickID,
					"updated_at":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &model.NotFoundError{Entity: "order", Key: o.ID.String()}
			}
			for _, p := range o.HistoricProfit {
				if p.ID == 0 {
					p.OrderID = o.ID
					snapshots = append(snapshots, p)
				}
			}
		}

		if len(snapshots) > 0 {
			if err := tx.Create(&snapshots).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.Trade{}).
			Where("id = ?", trade.ID).
			Updates(map[string]interface{}{
				"balance":    trade.Balance,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "SaveOrders",
			"trade_id": trade.ID,
			"orders":   len(orders),
		}).WithError(err).Error("Failed to save orders")
		return err
	}

	return nil
}

// FindOrdersBySymbolAndStatus returns the orders of symbol in status ordered
// by open timestamp, then id.
func (r *TradeRepository) FindOrdersBySymbolAndStatus(ctx context.Context, symbol string, status model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN trades ON trades.id = orders.trade_id").
		Preload("OpenTick").
		Preload("CloseTick").
		Where("trades.scope_symbol_name = ? AND orders.status = ?", symbol, status).
		Order("orders.opened_at ASC, orders.id ASC").
		Find(&orders).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "FindOrdersBySymbolAndStatus",
			"symbol": symbol,
			"status": status,
		}).WithError(err).Error("Failed to find orders")
		return nil, err
	}

	return orders, nil
}

// SetActive flips the active flag of the given trades and returns how many
// rows changed.
func (r *TradeRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "SetActive",
			"trades": len(ids),
		}).WithError(res.Error).Error("Failed to set active flag")
		return 0, res.Error
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "TradeRepository",
		"op":      "SetActive",
		"active":  active,
		"updated": res.RowsAffected,
	}).Info("Trades active flag updated")

	return res.RowsAffected, nil
}

// DeleteByScope removes the trades of scope with their orders and snapshots.
// Callers regenerating a scope clear it first.
func (r *TradeRepository) DeleteByScope(ctx context.Context, scope model.Scope) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trades := tx.Model(&model.Trade{}).Select("id").
			Where("scope_symbol_name = ? AND scope_time_frame = ?", scope.SymbolName, scope.TimeFrame)
		orders := tx.Model(&model.Order{}).Select("id").Where("trade_id IN (?)", trades)

		if err := tx.Where("order_id IN (?)", orders).Delete(&model.OrderProfit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trade_id IN (?)", trades).Delete(&model.Order{}).Error; err != nil {
			return err
		}
		res := tx.Where("scope_symbol_name = ? AND scope_time_frame = ?", scope.SymbolName, scope.TimeFrame).Delete(&model.Trade{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeRepository",
			"op":    "DeleteByScope",
			"scope": scope.String(),
		}).WithError(err).Error("Failed to delete trades")
		return 0, err
	}

	return deleted, nil
}
