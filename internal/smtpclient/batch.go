package smtpclient

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shineum/mail-dash-lite/internal/email"
)

// batchWorkers bounds the number of in-flight sessions opened by
// SendBatchConcurrent.
const batchWorkers = 4

// BuildFunc produces the message and envelope recipient list for one
// recipient set descriptor.
type BuildFunc func(email.Recipients) (*email.Message, []string, error)

// BatchResult pairs one recipient set descriptor with its own outcome.
// Exactly one of Result and Err is meaningful: Err covers build failures
// and hard send failures, Result covers everything the relay answered.
type BatchResult struct {
	Recipients email.Recipients
	Result     *email.Result
	Err        error
}

// SendBatch performs one send per descriptor over this client's connection,
// in order. A failure in building or sending one descriptor never aborts
// the batch; each descriptor yields its own result record.
func (c *Client) SendBatch(build BuildFunc, sets []email.Recipients) []BatchResult {
	results := make([]BatchResult, 0, len(sets))
	for _, set := range sets {
		res := BatchResult{Recipients: set}
		msg, envelope, err := build(set)
		if err != nil {
			res.Err = err
		} else {
			res.Result, res.Err = c.Send(msg, envelope)
		}
		results = append(results, res)
	}
	return results
}

// SendBatchConcurrent fires every descriptor's send without serializing
// between them, bounded to batchWorkers in-flight sends. Each descriptor
// opens its own session, so there is no contention on a shared connection.
// The returned slice is indexed by submission order; no guarantee is made
// about completion order.
func (c *Client) SendBatchConcurrent(ctx context.Context, build BuildFunc, sets []email.Recipients) []BatchResult {
	results := make([]BatchResult, len(sets))

	var g errgroup.Group
	g.SetLimit(batchWorkers)

	for i, set := range sets {
		i, set := i, set
		g.Go(func() error {
			res := BatchResult{Recipients: set}
			msg, envelope, err := build(set)
			if err != nil {
				res.Err = err
				results[i] = res
				return nil
			}
			res.Err = WithClient(ctx, c.sender, c.password, c.cfg, func(sc *Client) error {
				result, err := sc.Send(msg, envelope)
				res.Result = result
				return err
			})
			results[i] = res
			return nil
		})
	}

	g.Wait()
	return results
}
