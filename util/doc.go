// Package util holds small generic helpers used across transcribot.
package util
