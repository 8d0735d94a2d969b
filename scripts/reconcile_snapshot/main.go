// Command reconcile_snapshot replays a directory of upstream collection dumps
// (fees.json, allocations.json, students.json, rooms.json, hostels.json,
// attendances.json) through the gateway's views without touching the network.
// It reports row and draft counts, checks that merging the same snapshot twice
// yields the same rows, and optionally diffs against a saved baseline.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/service"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

// snapshotSource serves collections from JSON files. Missing files read as
// empty collections; writes are refused.
type snapshotSource struct {
	dir string
}

func (s snapshotSource) List(_ context.Context, _ string, col upstream.Collection, _ url.Values) ([]models.Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, string(col)+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return upstream.DecodeList(data)
}

func (s snapshotSource) Replace(context.Context, string, upstream.Collection, string, interface{}) (models.Record, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "snapshots are read-only")
}

func (s snapshotSource) Patch(context.Context, string, upstream.Collection, string, url.Values) (models.Record, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "snapshots are read-only")
}

// quietNotifier reports no delivery state and refuses to send.
type quietNotifier struct{}

func (quietNotifier) Notify(service.NotificationTarget) error {
	return errors.New("notifications are disabled during replay")
}

func (quietNotifier) State(string, string) string { return "" }

type report struct {
	View     string
	Rows     int
	Drafts   int
	Stable   bool
	Baseline string
	Err      error
}

type view struct {
	name string
	run  func(ctx context.Context) (interface{}, int, int, error)
}

func main() {
	var (
		dir      string
		baseline string
		date     string
		update   bool
	)

	flag.StringVar(&dir, "dir", filepath.Join("scripts", "reconcile_snapshot", "testdata"), "Directory holding collection dumps")
	flag.StringVar(&baseline, "baseline", "", "Directory of saved view output to diff against")
	flag.StringVar(&date, "date", time.Now().Format("2006-01-02"), "Roster date (YYYY-MM-DD)")
	flag.BoolVar(&update, "update", false, "Write the current output to -baseline")
	flag.Parse()

	source := snapshotSource{dir: dir}
	session := &models.Session{Token: "snapshot"}
	logger := zap.NewNop()

	fees := service.NewFeeService(source, nil, nil, nil, logger)
	rooms := service.NewRoomService(source, nil, logger)
	residents := service.NewResidentDirectory(source, nil, nil, logger, 0)
	attendance := service.NewAttendanceService(source, residents, nil, quietNotifier{}, nil, nil, logger)

	views := []view{
		{name: "fees", run: func(ctx context.Context) (interface{}, int, int, error) {
			v, err := fees.List(ctx, session)
			if err != nil {
				return nil, 0, 0, err
			}
			drafts := 0
			for _, row := range v.Rows {
				if row.IsNew {
					drafts++
				}
			}
			return v.Rows, len(v.Rows), drafts, nil
		}},
		{name: "residents", run: func(ctx context.Context) (interface{}, int, int, error) {
			v, err := residents.List(ctx, session, true)
			if err != nil {
				return nil, 0, 0, err
			}
			drafts := 0
			for _, r := range v.Residents {
				if r.IsDraft {
					drafts++
				}
			}
			return v.Residents, len(v.Residents), drafts, nil
		}},
		{name: "rooms", run: func(ctx context.Context) (interface{}, int, int, error) {
			v, err := rooms.List(ctx, session)
			if err != nil {
				return nil, 0, 0, err
			}
			return v.Rooms, len(v.Rooms), 0, nil
		}},
		{name: "roster", run: func(ctx context.Context) (interface{}, int, int, error) {
			v, err := attendance.Roster(ctx, session, date)
			if err != nil {
				return nil, 0, 0, err
			}
			drafts := 0
			for _, r := range v.Rows {
				if r.IsDraft {
					drafts++
				}
			}
			return v.Rows, len(v.Rows), drafts, nil
		}},
	}

	ctx := context.Background()
	var reports []report
	failed := 0
	for _, v := range views {
		r := replay(ctx, v, baseline, update)
		if r.Err != nil || !r.Stable || r.Baseline != "" {
			failed++
		}
		reports = append(reports, r)
	}

	printReport(reports)
	if failed > 0 {
		os.Exit(1)
	}
}

func replay(ctx context.Context, v view, baseline string, update bool) report {
	r := report{View: v.name}
	first, rows, drafts, err := v.run(ctx)
	if err != nil {
		r.Err = err
		return r
	}
	second, _, _, err := v.run(ctx)
	if err != nil {
		r.Err = err
		return r
	}
	r.Rows, r.Drafts = rows, drafts

	a, err := canonical(first)
	if err != nil {
		r.Err = err
		return r
	}
	b, err := canonical(second)
	if err != nil {
		r.Err = err
		return r
	}
	r.Stable = cmp.Equal(a, b)

	if baseline == "" {
		return r
	}
	path := filepath.Join(baseline, v.name+".json")
	if update {
		r.Err = writeJSON(path, a)
		return r
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = fmt.Errorf("read baseline: %w", err)
		return r
	}
	var saved interface{}
	if err := json.Unmarshal(data, &saved); err != nil {
		r.Err = fmt.Errorf("decode baseline %s: %w", path, err)
		return r
	}
	r.Baseline = cmp.Diff(saved, a)
	return r
}

// canonical round-trips through JSON so typed rows compare like baselines.
func canonical(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printReport(reports []report) {
	fmt.Println("View\tRows\tDrafts\tStable\tStatus")
	for _, r := range reports {
		status := "OK"
		switch {
		case r.Err != nil:
			status = "ERROR: " + r.Err.Error()
		case r.Baseline != "":
			status = "DRIFT"
		case !r.Stable:
			status = "UNSTABLE"
		}
		fmt.Printf("%s\t%d\t%d\t%t\t%s\n", r.View, r.Rows, r.Drafts, r.Stable, status)
		if r.Baseline != "" {
			fmt.Println(r.Baseline)
		}
	}
}
