// Package transcription defines the asynchronous speech-to-text contract
// the bot drives: upload audio, request a transcription of the uploaded
// asset, then poll the returned reference until the job settles.
//
// The only backend is transcription/gladia.
package transcription
