// Package bot connects chat adapters to the transcription pipeline.
//
// Handler turns an inbound voice message into a tracked job: fetch the
// audio, upload it, request a transcription and hand the poll reference to
// the job tracker. Dispatcher posts finished transcripts back as replies,
// routed by the platform the message came from.
package bot
