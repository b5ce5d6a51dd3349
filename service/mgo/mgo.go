package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"GateLink/logger"
)

type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

type MongoManager struct {
	mu        sync.RWMutex
	client    *mongo.Client
	database  string
	readyCh   chan struct{} // closed once on first successful connect
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = &MongoManager{readyCh: make(chan struct{})}

func Manager() *MongoManager { return globalMgr }

// StartAsync runs until ctx is done; closes the ready channel on the first
// successful connect and keeps a health loop with reconnect after that.
func StartAsync(ctx context.Context, cfg *Config) {
	globalMgr.database = cfg.Database

	go func() {
		const (
			baseBackoff = 200 * time.Millisecond
			maxBackoff  = 5 * time.Second
			healthEvery = 10 * time.Second
		)

		for {
			// connect phase, exponential backoff with jitter
			attempt := 0
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				cli, err := connect(ctx, cfg)
				if err == nil {
					globalMgr.mu.Lock()
					globalMgr.client = cli
					globalMgr.mu.Unlock()
					globalMgr.readyOnce.Do(func() { close(globalMgr.readyCh) })
					logger.Infof("[mgo] connected uri=%s db=%s", cfg.URI, cfg.Database)
					break
				}

				globalMgr.lastErr.Store(err)
				logger.Warnf("[mgo] connect failed (attempt %d): %v", attempt+1, err)

				backoff := baseBackoff << attempt
				if backoff > maxBackoff {
					backoff = maxBackoff
				} else if attempt < 6 {
					attempt++
				}
				jitter := time.Duration(rand.Int63n(int64(backoff/5) + 1))
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff - jitter/2):
				}
			}

			// health phase
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(healthEvery):
				}
				pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				err := globalMgr.ping(pctx)
				cancel()
				if err != nil {
					logger.Warnf("[mgo] health check failed, reconnecting: %v", err)
					globalMgr.lastErr.Store(err)
					break
				}
			}
		}
	}()
}

// WaitReady blocks until the first connect succeeds or ctx expires.
func WaitReady(ctx context.Context) error {
	select {
	case <-globalMgr.readyCh:
		return nil
	case <-ctx.Done():
		if v := globalMgr.lastErr.Load(); v != nil {
			return errors.Wrap(v.(error), "mongo not ready")
		}
		return errors.Wrap(ctx.Err(), "mongo not ready")
	}
}

// Database returns the configured database or an error while disconnected.
func (m *MongoManager) Database() (*mongo.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, errors.New("mongo not connected")
	}
	return m.client.Database(m.database), nil
}

func (m *MongoManager) ping(ctx context.Context) error {
	m.mu.RLock()
	cli := m.client
	m.mu.RUnlock()
	if cli == nil {
		return errors.New("mongo not connected")
	}
	return cli.Ping(ctx, readpref.Primary())
}

func connect(ctx context.Context, cfg *Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cli, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(cctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}
