package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	dirmodels "bloodlink/internal/directory/models"
	dirservice "bloodlink/internal/directory/service"
	dirstore "bloodlink/internal/directory/store"
	donormodels "bloodlink/internal/donor/models"
	donorservice "bloodlink/internal/donor/service"
	donorstore "bloodlink/internal/donor/store"
	invservice "bloodlink/internal/inventory/service"
	invstore "bloodlink/internal/inventory/store"
	nearbyservice "bloodlink/internal/nearby/service"
	nearbystore "bloodlink/internal/nearby/store"
	"bloodlink/internal/platform/config"
	reqservice "bloodlink/internal/request/service"
	reqstore "bloodlink/internal/request/store"
	"bloodlink/pkg/platform/audit"
	auditmemory "bloodlink/pkg/platform/audit/store/memory"
	auditpostgres "bloodlink/pkg/platform/audit/store/postgres"
	txcontext "bloodlink/pkg/platform/tx"
)

type directoryStore interface {
	reqservice.Directory
	dirservice.Directory
	nearbyservice.Directory
	SaveHospital(ctx context.Context, h *dirmodels.Hospital) error
	SaveBloodBank(ctx context.Context, b *dirmodels.BloodBank) error
	SaveReceiver(ctx context.Context, r *dirmodels.Receiver) error
}

type donorStore interface {
	donorservice.Store
	Save(ctx context.Context, p *donormodels.Profile) error
}

// stores is the persistence layer chosen at startup.
type stores struct {
	db        *sql.DB
	directory directoryStore
	donors    donorStore
	inventory invservice.Store
	requests  reqservice.RequestStore
	donations reqservice.DonationStore
	distances nearbyservice.RecordStore
	activity  audit.Store
	tx        reqservice.UnitOfWork
}

func newMemoryStores() *stores {
	donors := donorstore.NewInMemoryStore()
	inventory := invstore.NewInMemoryStore()
	requests := reqstore.NewInMemoryRequestStore()
	donations := reqstore.NewInMemoryDonationStore()
	return &stores{
		directory: dirstore.NewInMemoryStore(),
		donors:    donors,
		inventory: inventory,
		requests:  requests,
		donations: donations,
		distances: nearbystore.NewInMemoryStore(),
		activity:  auditmemory.NewInMemoryStore(),
		tx:        txcontext.NewMemoryRunner(),
	}
}

func newPostgresStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &stores{
		db:        db,
		directory: dirstore.NewPostgres(db),
		donors:    donorstore.NewPostgres(db),
		inventory: invstore.NewPostgres(db),
		requests:  reqstore.NewPostgresRequestStore(db),
		donations: reqstore.NewPostgresDonationStore(db),
		distances: nearbystore.NewPostgres(db),
		activity:  auditpostgres.New(db),
		tx:        txcontext.NewPostgresRunner(db, txcontext.WithTimeout(cfg.TxTimeout)),
	}, nil
}

func (s *stores) close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
