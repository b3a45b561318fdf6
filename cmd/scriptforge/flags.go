package main

import "time"

// CreateFlags Flag structs to decouple cobra from logic for testing.
type CreateFlags struct {
	Command     string
	Description string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type RunFlags struct {
	Command     string
	Name        string
	Description string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type StopFlags struct {
	Name string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type ListFlags struct {
	Usage bool
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type FindFlags struct {
	Query string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type PruneFlags struct {
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type TemplateSaveFlags struct {
	Name string
	File string
}

type TemplateShowFlags struct {
	Kind string
}

type ServeFlags struct {
	Listen string
}
