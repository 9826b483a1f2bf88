package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/CodedInternet/hexastat/comms"
	"github.com/CodedInternet/hexastat/onboard"
	"github.com/CodedInternet/hexastat/onboard/calstore"
	"github.com/CodedInternet/hexastat/onboard/hardware"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"HEXASTAT_DEVICE_UUID" envDefault:"DEV"`
	DEBUG      bool   `env:"DEBUG" envDefault:"0"`
	SRCDIR     string `env:"SRCDIR" envDefault:"."`
	DATADIR    string `env:"DATADIR" envDefault:"./tmp"`
	DB         *storm.DB
}

var (
	ENV *EnvConfig
)

func init() {
	// Load main config
	ENV = new(EnvConfig)
	env.Parse(ENV)

	// setup database
	dbFile, _ := filepath.Abs(ENV.DATADIR + "/hexastat.db")
	dir := filepath.Dir(dbFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.Mkdir(dir, 0755)
	}

	db, err := openDb(dbFile)
	if err != nil {
		panic(err)
	}
	ENV.DB = db
}

func openDb(path string) (*storm.DB, error) {
	return storm.Open(path)
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run the device against the simulated driver board")
	calibrate := flag.Bool("calibrate", false, "Run the calibration procedure and exit")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	flag.Parse()

	defer ENV.DB.Close() // close database when finished

	filename, err := filepath.Abs(ENV.SRCDIR + "/hexastat.yaml")
	if err != nil {
		panic(err)
	}

	config, err := onboard.LoadConfig(filename)
	if err != nil {
		panic(fmt.Sprintf("Unable to load config: %v", err))
	}

	// stored calibrations beat the config defaults
	store := calstore.NewStore(ENV.DB)
	if err = store.Overlay(config); err != nil {
		panic(err)
	}

	var driver hardware.ActuatorDriver
	if *simulated || config.Mode == "simulator" {
		println("Creating simulator")
		driver = onboard.NewSimulatedNode()
	} else {
		driver, err = hardware.NewSerialControlNode(config.Serial.Port, config.Serial.Baud)
		if err != nil {
			panic(fmt.Sprintf("Unable to open control node: %v", err))
		}
	}

	if *calibrate {
		cal := &onboard.Calibrator{Driver: driver, Out: os.Stdout, Store: store}
		if _, err := cal.CalibrateAll(); err != nil {
			panic(err)
		}
		return
	}

	device, err := onboard.NewHexastat(config, driver, os.Stdin, os.Stdout)
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize hexastat: %v", err))
	}

	go device.Run()

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Post("/api/login", Login)
	r.Route("/api/device", func(r chi.Router) {
		r.Use(ValidateJWT)
		r.Get("/refresh", JWTRefresh)
		r.Mount("/", comms.NewBridge(device).Routes())
	})

	go func() {
		log.Fatal(http.ListenAndServe(*port, r))
	}()

	//---
	// Create a local shell
	//---
	shell := ishell.New()
	shell.Println("Hexastat development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true) // yes, revert when done.

			// get email
			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			// get password
			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			// create user
			user := &User{
				Email: email,
				Name:  email,
				Admin: true,
			}
			user.SetPassword([]byte(password))
			if err := ENV.DB.Save(user); err != nil {
				panic(err)
			}

			c.Println("Superuser created")
		},
	})

	// Add device specific commands
	shell.AddCmd(&ishell.Cmd{
		Name: "target",
		Help: "target <p1> <p2> <p3> <p4> <p5> <p6>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != onboard.NUM_ACTUATORS {
				c.Err(fmt.Errorf("expected %d positions, got %d", onboard.NUM_ACTUATORS, len(c.Args)))
				return
			}
			c.Printf("Commanding targets %s\n", strings.Join(c.Args, " "))
			device.Feed([]byte(strings.Join(c.Args, " ") + "\n"))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "Reads the current state of the device",
		Func: func(c *ishell.Context) {
			snap := device.Snapshot()
			c.Printf("target:  %v\n", snap.Targets)
			c.Printf("current: %v\n", snap.Currents)
			c.Printf("output:  %v\n", snap.Outputs)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "cal",
		Help: "cal <actuator> - recalibrate one actuator and persist the bounds",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: cal <actuator>"))
				return
			}
			index, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}

			// the control loop would fight the calibration drive otherwise
			release := device.Hold()
			defer release()

			cal := &onboard.Calibrator{Driver: driver, Out: os.Stdout, Store: store}
			bounds, err := cal.Calibrate(index)
			if err != nil {
				c.Err(err)
				return
			}
			if err = device.SetBounds(index, bounds); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Calibrated actuator %d: %d %d\n", index, bounds.RawMin, bounds.RawMax)
		},
	})

	shell.Start()
}
