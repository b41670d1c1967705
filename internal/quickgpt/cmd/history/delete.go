package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	historysvc "github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

type DeleteOptions struct {
	Refs []string

	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdDelete(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &DeleteOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "delete SESSION...",
		DisableFlagsInUseLine: true,
		Aliases:               []string{"rm"},
		Short:                 "Delete recorded sessions",
		Args:                  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.Refs = args
			util.CheckErr(o.Run())
		},
	}
	return cmd
}

// Run removes each session file and its index entry.
func (o *DeleteOptions) Run() error {
	dir := o.factory.Options().HistoryOptions.Dir
	index := o.factory.SessionIndex()

	var errs []error
	for _, ref := range o.Refs {
		path, err := historysvc.Resolve(dir, ref)
		id := strings.TrimSuffix(filepath.Base(ref), historysvc.FileExt)
		switch {
		case err == nil:
			id = strings.TrimSuffix(filepath.Base(path), historysvc.FileExt)
			if err := os.Remove(path); err != nil {
				errs = append(errs, err)
				continue
			}
		case errors.Is(err, errno.ErrSessionNotFound) && index != nil:
			if _, gerr := index.Get(id); gerr != nil {
				errs = append(errs, err)
				continue
			}
		default:
			errs = append(errs, err)
			continue
		}

		// A session whose file is already gone may still be indexed.
		if index != nil {
			if err := index.Delete(id); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove %s from the session index: %w", id, err))
				continue
			}
		}
		fmt.Fprintf(o.Out, "session %s deleted\n", id)
	}
	return errors.Join(errs...)
}
