package docker

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/selenology/internal/environment"
)

func TestRunArgs(t *testing.T) {
	tests := []struct {
		name   string
		mounts []string
		cmd    environment.Command
		opts   environment.ExecOptions
		want   []string
	}{
		{
			name: "tool invocation",
			mounts: []string{
				"/opt/selene-old",
				"/opt/selene-new",
			},
			cmd: environment.Command{
				Name: "/opt/selene-old",
				Args: []string{"src", "--num-threads", "1"},
				Dir:  "/tmp/clones/roact",
			},
			want: []string{
				"run", "--rm", "--name", "c1",
				"-v", "/tmp/clones/roact:/tmp/clones/roact", "-w", "/tmp/clones/roact",
				"-v", "/opt/selene-old:/opt/selene-old:ro",
				"-v", "/opt/selene-new:/opt/selene-new:ro",
				"rust:1", "/opt/selene-old", "src", "--num-threads", "1",
			},
		},
		{
			name: "environment sorted",
			cmd: environment.Command{
				Name: "selene",
			},
			opts: environment.ExecOptions{
				Env: map[string]string{"B": "2", "A": "1"},
			},
			want: []string{
				"run", "--rm", "--name", "c1",
				"-e", "A=1", "-e", "B=2",
				"rust:1", "selene",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner("rust:1", tt.mounts...)
			got := r.runArgs("c1", tt.cmd, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("runArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestName(t *testing.T) {
	if got := NewRunner("img").Name(); got != "docker" {
		t.Errorf("expected docker, got %s", got)
	}
}

func TestContainerNamesUnique(t *testing.T) {
	r := NewRunner("img")

	const workers, perWorker = 8, 50
	names := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				names <- r.containerName()
			}
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Fatalf("duplicate container name %s", name)
		}
		seen[name] = true
	}
}
