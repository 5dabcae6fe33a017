// Package jobs tracks in-flight transcription jobs and drives the poll loop
// that settles them.
//
// A Job is created only after the audio was uploaded and the transcription
// request accepted. The Poller inserts it into its Registry and lazily
// starts a single loop goroutine. Each round polls a snapshot of the
// registry with bounded parallelism, removes settled jobs at the end of the
// round and hands finished transcripts to a Dispatcher. The loop exits once
// a round leaves the registry empty, and the next Add starts a new one.
//
//	p := jobs.NewPoller(cfg, gladiaClient, dispatcher, jobs.WithLogger(log))
//	_ = p.Add(jobs.New(pollRef, origin))
package jobs
