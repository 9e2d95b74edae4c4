// Package taskqueue runs an ordered batch of tasks with bounded concurrency
// and cancels the batch as a unit.
//
// A Queue is built with Push, started once with Execute and stopped with
// Cancel:
//
//	q := taskqueue.New(taskqueue.WithConcurrency(2))
//	q.Push(func(ctx context.Context) error { return fetch(ctx, 0) })
//	q.Push(func(ctx context.Context) error { return fetch(ctx, 1) })
//	done := q.Execute()
//	...
//	q.Cancel() // tasks not yet issued never start
//	<-done
//
// Cancel does not interrupt tasks already in flight and does not cancel the
// context they were given. A failing or panicking task is counted and
// reported through the error handler; it never stops its siblings.
package taskqueue
