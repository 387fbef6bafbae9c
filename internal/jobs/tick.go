package jobs

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/ports"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Options are shared by every scheduled job. Locker and NewRelic are optional.
type Options struct {
	// Schedule is a cron expression with a seconds field, or a descriptor such as "@every 30s".
	Schedule string
	// Timeout bounds a single run. It also serves as the lease of the cluster lock.
	Timeout  time.Duration
	Locker   ports.Locker
	NewRelic *newrelic.Application
}

// tick runs fn once under the job's lease and transaction. It reports whether fn ran.
func (o Options) tick(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if o.Locker != nil {
		acquired, err := o.Locker.TryLock(ctx, "job:"+name, timeout)
		if err != nil {
			return false, err
		}
		if !acquired {
			return false, nil
		}
		defer func() {
			_ = o.Locker.Unlock(context.WithoutCancel(ctx), "job:"+name)
		}()
	}

	if o.NewRelic != nil {
		txn := o.NewRelic.StartTransaction("job/" + name)
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)

		err := fn(ctx)
		if err != nil {
			txn.NoticeError(err)
		}
		return true, err
	}

	return true, fn(ctx)
}
