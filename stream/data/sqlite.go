package data

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a persistent collection of normalized documents.
type Store interface {
	Open() error
	Close()
	SelectAll(context.Context) ([]Document, error)
	Upsert(context.Context, Document) error
}

// sqliteStore keeps documents in a sqlite database, one row per document,
// with the raw JSON alongside its extracted id and timestamp.
type sqliteStore struct {
	name       string // store name, mainly for error messages
	connection string
	db         *gorm.DB
	sqldb      *sql.DB
}

// storedDocument is the gorm model for a database row
type storedDocument struct {
	ID           uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DocumentID   string `gorm:"index;unique"`
	DocumentTime time.Time
	DocumentJSON string
}

func (s *sqliteStore) Open() error {
	if s.db != nil {
		s.Close()
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Open(s.connection), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return err
	}
	s.sqldb, err = db.DB()
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Migrator().AutoMigrate(&storedDocument{})
}

func (s *sqliteStore) Close() {
	if s.db != nil {
		s.sqldb.Close()
		s.sqldb = nil
		s.db = nil
	}
}

// Upsert saves a document, replacing any stored document with the same
// normalized id.
func (s *sqliteStore) Upsert(ctx context.Context, doc Document) error {
	if s.db == nil {
		return fmt.Errorf("store %s has not been opened", s.name)
	}
	id := doc.ID()
	var row storedDocument
	tx := s.db.WithContext(ctx).Where(&storedDocument{DocumentID: id}).First(&row)
	switch {
	case tx.Error == nil:
		row.DocumentTime = doc.Timestamp()
		row.DocumentJSON = string(doc.JSON())
		if tx := s.db.WithContext(ctx).Save(&row); tx.Error != nil {
			return fmt.Errorf("updating %s document %s: %w", s.name, id, tx.Error)
		}
		return nil
	case tx.Error == gorm.ErrRecordNotFound:
		tx := s.db.WithContext(ctx).Create(&storedDocument{
			DocumentID:   id,
			DocumentTime: doc.Timestamp(),
			DocumentJSON: string(doc.JSON()),
		})
		if tx.Error != nil {
			return fmt.Errorf("creating %s document %s: %w", s.name, id, tx.Error)
		}
		return nil
	}
	return fmt.Errorf("finding document %s: %w", id, tx.Error)
}

// SelectAll returns every stored document, oldest first.
func (s *sqliteStore) SelectAll(ctx context.Context) ([]Document, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store %s has not been opened", s.name)
	}
	var rows []storedDocument
	tx := s.db.WithContext(ctx).Order("document_time").Find(&rows)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("database error in %s: %w", s.name, tx.Error)
	}
	documents := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := NewRecord([]byte(row.DocumentJSON))
		if err != nil {
			return nil, fmt.Errorf("bad stored document %s in %s: %w", row.DocumentID, s.name, err)
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

func NewSQLiteStore(name string, connection string) Store {
	return &sqliteStore{
		name:       name,
		connection: connection,
	}
}
