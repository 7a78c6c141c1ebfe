// Motor test - run each thruster move in turn to check wiring
//
// Usage: motor-test [-backend pca9685|serial|dryrun] [-duration 2s] [-moves forward,left]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-polrov/internal/config"
	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/motor"
)

func main() {
	def := motor.DefaultConfig()
	backend := flag.String("backend", def.Backend, "PWM backend: pca9685, serial, dryrun")
	bus := flag.String("bus", config.I2CBus(""), "I2C bus name (I2C_BUS)")
	port := flag.String("serial", config.MotorSerial(""), "Serial bridge device (MOTOR_SERIAL)")
	duration := flag.Duration("duration", 2*time.Second, "How long to run each move")
	arm := flag.Duration("arm", 3*time.Second, "Time at minimum before the first move")
	moves := flag.String("moves", "forward,backward,left,right,up,down", "Comma separated moves")
	slow := flag.Bool("slow", false, "Use the slow level instead of cruise")
	flag.Parse()

	log.Init("debug")

	cfg := def
	cfg.Backend = *backend
	cfg.I2CBus = *bus
	cfg.SerialPort = *port

	var plan []decision.Move
	for _, name := range strings.Split(*moves, ",") {
		m, ok := decision.ParseMove(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "❌ unknown move %q\n", name)
			os.Exit(1)
		}
		plan = append(plan, m)
	}

	speed := decision.SpeedCruise
	if *slow {
		speed = decision.SpeedSlow
	}

	fmt.Println("⚙️  PolROV Motor Test")
	fmt.Println("====================")
	fmt.Printf("   Backend: %s\n", cfg.Backend)

	planner, err := motor.NewPlanner(cfg.Layout, cfg.Levels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	driver, err := motor.NewDriver(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			fmt.Printf("⚠️  Close: %v\n", err)
		}
		fmt.Println("🛑 All motors stopped")
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("⏳ Arming (%s)...\n", *arm)
	if err := driver.StopAll(); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	if !sleep(ctx, *arm) {
		return
	}

	for _, m := range plan {
		cmd := decision.Single(m, speed)
		fmt.Printf("▶️  %-8s %s\n", m, describe(planner, cmd))
		if err := driver.Apply(cmd); err != nil {
			fmt.Printf("⚠️  %v\n", err)
		}
		if !sleep(ctx, *duration) {
			return
		}
		if err := driver.StopAll(); err != nil {
			fmt.Printf("⚠️  %v\n", err)
		}
		if !sleep(ctx, time.Second) {
			return
		}
	}
	fmt.Println("✅ Done")
}

// describe lists the channel writes a command will produce.
func describe(planner *motor.Planner, cmd decision.Command) string {
	var parts []string
	for _, s := range planner.Plan(cmd) {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ", ")
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
