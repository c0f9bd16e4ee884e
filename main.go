package main

import (
	"github.com/pmkol/dnscache/coremain"
	"github.com/pmkol/dnscache/mlog"
)

func main() {
	if err := coremain.Run(); err != nil {
		mlog.S().Fatal(err)
	}
}
