package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet on all packages",
	Action: func(a *goyek.A) {
		run(a, os.Stdout, "go", "vet", "./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run unit tests; set LONG=1 to include git and subprocess tests",
	Deps:  goyek.Deps{vet},
	Action: func(a *goyek.A) {
		args := []string{"test", "-race"}
		if os.Getenv("LONG") == "" {
			args = append(args, "-short")
		}
		run(a, os.Stdout, "go", append(args, "./...")...)
	},
})

var report = goyek.Define(goyek.Task{
	Name:  "report",
	Usage: "Run the corpus comparison and write report.html",
	Action: func(a *goyek.A) {
		f, err := os.Create("report.html")
		if err != nil {
			a.Fatal(err)
		}
		defer f.Close()
		run(a, f, "go", "run", "./cmd/selenology", "--keep-going")
	},
})

func run(a *goyek.A, stdout *os.File, name string, args ...string) {
	a.Helper()
	a.Log(name, args)
	cmd := exec.CommandContext(a.Context(), name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		a.Error(err)
	}
}

func main() {
	goyek.SetDefault(test)
	goyek.Main(os.Args[1:])
}
