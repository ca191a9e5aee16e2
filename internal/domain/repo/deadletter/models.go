package deadletter

import "time"

type DeadLetter struct {
	ProcessingContext ProcessingContext
	Inputs            []Input
	Reason            Reason
}

type ProcessingContext struct {
	Component Component
	Time      time.Time
	Host      string
}

type Component struct {
	Branch   string
	Revision string
}

type Input struct {
	Source string
	Key    string
	Value  []byte
}

type Reason struct {
	Category string
	Error    string
}
