package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput writes each exchange into its own file under dir.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange file", "id", id, "err", err)
	}
}

// DumpExchanges writes every response the client receives to output, named
// "<prefix>-<n>-<method>.txt". A nil output leaves the client untouched.
func DumpExchanges(client *resty.Client, prefix string, output Output) {
	if output == nil {
		return
	}
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		id := fmt.Sprintf("%s-%d-%s.txt", prefix, n, strings.ToLower(res.Request.Method))
		output.Write(id, FormatExchange(res))
		return nil
	})
}
