package main

import (
	"zendocs-backend/cmd/docsync/cmd"
	"zendocs-backend/lib/util/serviceutil"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		serviceutil.Fatal("docsync", err)
	}
}
