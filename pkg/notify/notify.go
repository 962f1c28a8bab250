// Package notify carries user-visible notices out of the engines.
package notify

import (
	"log"

	"github.com/harrisonrobin/nextup/pkg/model"
)

// Notifier shows non-blocking notices to the user.
type Notifier interface {
	// FirstTaskChanged asks the user whether to move on from prev to next.
	FirstTaskChanged(prev, next *model.Task)
	Info(msg string)
	Error(err error)
}

// Log writes notices to the standard logger.
type Log struct{}

func (Log) FirstTaskChanged(prev, next *model.Task) {
	log.Printf("First task changed: %q -> %q", prev.Content, next.Content)
}

func (Log) Info(msg string) {
	log.Print(msg)
}

func (Log) Error(err error) {
	log.Printf("Error: %v", err)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) FirstTaskChanged(prev, next *model.Task) {}
func (Discard) Info(msg string)                         {}
func (Discard) Error(err error)                         {}
