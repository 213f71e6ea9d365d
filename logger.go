package mediatex

import "github.com/edaniels/golog"

// Logger is used when a SourceConfig has no logger of its own.
var Logger = golog.Global().Named("mediatex")
