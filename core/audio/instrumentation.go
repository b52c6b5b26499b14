package audio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-clips/core/audio"

var logger = otelslog.NewLogger(scopeName)
