package postgresdb

import (
	"context"
	"errors"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tradeRepositoryImpl struct {
	db *repoManager
}

func NewTradeRepositoryImpl(db *repoManager) domain.TradeRepository {
	return &tradeRepositoryImpl{db}
}

func (r *tradeRepositoryImpl) AddTrade(ctx context.Context, trade *domain.Trade) error {
	m := toTradeModel(*trade)
	return r.db.conn(ctx).Create(&m).Error
}

func (r *tradeRepositoryImpl) GetTrade(
	ctx context.Context, tradeID string,
) (*domain.Trade, error) {
	var m tradeModel
	if err := withItems(r.db.conn(ctx)).
		First(&m, "id = ?", tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *tradeRepositoryImpl) UpdateTrade(
	ctx context.Context,
	tradeID string,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) error {
	_, err := r.db.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			tx := r.db.conn(ctx)

			var m tradeModel
			if err := withItems(tx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&m, "id = ?", tradeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, domain.ErrTradeNotFound
				}
				return nil, err
			}

			updated, err := updateFn(m.toDomain())
			if err != nil {
				return nil, err
			}

			um := toTradeModel(*updated)
			return nil, tx.Omit(clause.Associations).Save(&um).Error
		},
	)
	return err
}

func (r *tradeRepositoryImpl) GetTradesForUser(
	ctx context.Context, userID string, filter domain.TradeFilter, page domain.Page,
) ([]*domain.Trade, int, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("initiator_id = ? OR counterparty_id = ?", userID, userID)
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status.String())
		}
		return db
	}

	var total int64
	if err := r.db.conn(ctx).Model(&tradeModel{}).
		Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []tradeModel
	if err := withItems(r.db.conn(ctx)).Scopes(scope).
		Order("created_at DESC").Order("id").
		Offset(page.Offset()).Limit(page.Size).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return toDomainTrades(models), int(total), nil
}

func (r *tradeRepositoryImpl) GetTradesBetweenUsers(
	ctx context.Context, userID, partnerID string,
) ([]*domain.Trade, error) {
	var models []tradeModel
	if err := withItems(r.db.conn(ctx)).
		Where(
			"(initiator_id = ? AND counterparty_id = ?) OR (initiator_id = ? AND counterparty_id = ?)",
			userID, partnerID, partnerID, userID,
		).
		Order("created_at").Order("id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainTrades(models), nil
}

func (r *tradeRepositoryImpl) GetTradesNotUpdatedSince(
	ctx context.Context, statuses []domain.TradeStatus, since time.Time,
) ([]*domain.Trade, error) {
	if len(statuses) <= 0 {
		return nil, nil
	}
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, st.String())
	}

	var models []tradeModel
	if err := withItems(r.db.conn(ctx)).
		Where("status IN ? AND updated_at <= ?", values, since).
		Order("updated_at").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainTrades(models), nil
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func toDomainTrades(models []tradeModel) []*domain.Trade {
	trades := make([]*domain.Trade, 0, len(models))
	for _, m := range models {
		trades = append(trades, m.toDomain())
	}
	return trades
}
