package main

import (
	"io"

	"github.com/kovetskiy/lorg"
	"github.com/reconquest/pkg/log"
)

const logFormat = "${time} ${level:[%s]:right:short} %s"

// initLogging sends log output to w. verbose enables debug lines; quiet
// keeps warnings and errors only. verbose wins when both are set.
func initLogging(w io.Writer, verbose, quiet bool) {
	log.GetLogger().SetFormat(lorg.NewFormat(logFormat))
	log.GetLogger().SetOutput(w)

	switch {
	case verbose:
		log.SetLevel(lorg.LevelDebug)
	case quiet:
		log.SetLevel(lorg.LevelWarning)
	default:
		log.SetLevel(lorg.LevelInfo)
	}
}
