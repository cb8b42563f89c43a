// Package dispatch runs a single receiver call in isolation.
//
// The Executor wraps each call with panic recovery and timing so that the
// exchange can deliver one message to many subscribers and still report
// every failure after the fact, instead of letting the first broken
// subscriber unwind the whole send.
//
//	exec := dispatch.NewExecutor(dispatch.WithPanicHandler(func(msg, v any, stack []byte) {
//	    logger.Error("subscriber panic", zap.Any("value", v))
//	}))
//	res := exec.Execute(ctx, msg, receiver)
//	if !res.IsSuccess() {
//	    ...
//	}
package dispatch
