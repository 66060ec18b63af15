// internal/idempotency/operation.go
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoCachedResult signals caller misuse: CachedResult was read without
// first checking ShouldExecute.
var ErrNoCachedResult = errors.New("no cached result for idempotent operation")

// Operation scopes one side-effecting unit of work under an idempotency
// key. It does not execute the side effect itself; the caller branches on
// ShouldExecute and reports the outcome through StoreResult:
//
//	op, err := idempotency.Begin(ctx, store, "create_invoice", map[string]interface{}{"order_id": orderID})
//	if op.ShouldExecute() {
//	    result := createInvoice(ctx, orderID)
//	    op.StoreResult(ctx, result)
//	} else {
//	    result, _ = op.CachedResult()
//	}
//
// If the process dies after the side effect but before StoreResult, the
// next retry re-executes. Callers closing that gap pass op.Key() through
// to the remote API as its Idempotency-Key so the remote side dedups.
type Operation struct {
	key    string
	store  Store
	cached json.RawMessage
	found  bool
}

// Begin derives the operation key from prefix and fields and looks up any
// previously stored result.
func Begin(ctx context.Context, store Store, prefix string, fields map[string]interface{}) (*Operation, error) {
	key, err := KeyFor(prefix, fields)
	if err != nil {
		return nil, err
	}

	cached, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Operation{
		key:    key,
		store:  store,
		cached: cached,
		found:  found,
	}, nil
}

// Key returns the derived idempotency key, suitable for pass-through to
// remote APIs that accept an Idempotency-Key header.
func (op *Operation) Key() string {
	return op.key
}

// ShouldExecute reports whether the side effect still needs to run.
func (op *Operation) ShouldExecute() bool {
	return !op.found
}

// CachedResult returns the stored result. Calling it when none exists is
// a programming error and returns ErrNoCachedResult.
func (op *Operation) CachedResult() (json.RawMessage, error) {
	if !op.found {
		return nil, fmt.Errorf("%w: key %s", ErrNoCachedResult, op.key)
	}
	return op.cached, nil
}

// StoreResult persists the side effect's result and makes it available to
// CachedResult within this scope.
func (op *Operation) StoreResult(ctx context.Context, result json.RawMessage) error {
	if err := op.store.Set(ctx, op.key, result); err != nil {
		return err
	}
	op.cached = result
	op.found = true
	return nil
}

// Do wraps fn in an idempotent scope: if a result is already stored for
// (prefix, fields) it is decoded and returned without running fn;
// otherwise fn runs once and its JSON-encoded result is stored.
func Do[T any](ctx context.Context, store Store, prefix string, fields map[string]interface{}, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	op, err := Begin(ctx, store, prefix, fields)
	if err != nil {
		return zero, err
	}

	if !op.ShouldExecute() {
		cached, err := op.CachedResult()
		if err != nil {
			return zero, err
		}
		var result T
		if err := json.Unmarshal(cached, &result); err != nil {
			return zero, fmt.Errorf("failed to decode cached result for %s: %w", op.Key(), err)
		}
		return result, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return zero, fmt.Errorf("failed to encode result for %s: %w", op.Key(), err)
	}
	if err := op.StoreResult(ctx, data); err != nil {
		return zero, fmt.Errorf("side effect succeeded but result was not stored for %s: %w", op.Key(), err)
	}

	return result, nil
}
