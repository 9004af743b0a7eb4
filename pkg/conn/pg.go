package conn

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Client wraps a PostgreSQL connection pool used by the optional
// order-history archiver.
type Client struct {
	db *gorm.DB
}

// New opens a PostgreSQL client from a DSN or connection URL.
func New(dsn string, config *gorm.Config) (*Client, error) {
	if config == nil {
		config = &gorm.Config{}
	}
	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
