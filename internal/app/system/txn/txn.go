// Package txn runs a unit of MongoDB work inside a transaction when the
// deployment supports it.
//
// Each call to Run is one commit boundary: the work either commits as a
// whole or is aborted (rolled back) and its error returned. Standalone
// servers without a replica set cannot run transactions; there Run executes
// the work directly, which for single-document writes is still atomic.
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    _, err := db.Collection("roles").InsertOne(ctx, role)
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is one unit of work. The context it receives must be used for every
// database call so the calls join the transaction.
type Func func(ctx context.Context) error

// Run executes fn in its own transaction, falling back to a plain call when
// sessions or transactions are unavailable. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		warn(log, "could not start session; running without transaction", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err == nil {
		return nil
	}
	if IsNotSupported(err) {
		warn(log, "transactions not supported; running without transaction", err)
		return fn(ctx)
	}
	return err
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Warn(msg, zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions.
//
// Known codes: 20 (transaction numbers need a replica set or mongos),
// 51 (IllegalOperation), 263 (operation not allowed in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Message fallback for DocumentDB and older servers. Two keywords must
	// match so an ordinary write error mentioning "session" is not swallowed.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
