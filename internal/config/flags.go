package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a local API address in format [host]:[port]
//	-q retry-queue path (.db/.sqlite selects the SQLite backend)
//	-space CMS space id
//	-environment CMS environment name
//	-delivery-token CMS read token
//	-management-token CMS write token
//	-delivery-url CMS delivery API base URL
//	-management-url CMS management API base URL
//	-request-timeout CMS request timeout (e.g., "30s", "1m")
//	-replay-interval automatic replay interval, 0 disables (e.g., "5m")
//	-replay-max-attempts retry cap per entry per replay cycle
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var queuePath string
	var spaceID string
	var environment string
	var deliveryToken string
	var managementToken string
	var deliveryURL string
	var managementURL string
	var requestTimeout time.Duration
	var replayInterval time.Duration
	var replayMaxAttempts uint64
	var jsonConfigPath string

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&queuePath, "q", "", "Retry-queue path")
	flag.StringVar(&spaceID, "space", "", "CMS space id")
	flag.StringVar(&environment, "environment", "", "CMS environment name")
	flag.StringVar(&deliveryToken, "delivery-token", "", "CMS delivery (read) token")
	flag.StringVar(&managementToken, "management-token", "", "CMS management (write) token")
	flag.StringVar(&deliveryURL, "delivery-url", "", "CMS delivery API base URL")
	flag.StringVar(&managementURL, "management-url", "", "CMS management API base URL")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "CMS request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&replayInterval, "replay-interval", 0, "Automatic replay interval, 0 disables (e.g., 5m)")
	flag.Uint64Var(&replayMaxAttempts, "replay-max-attempts", 0, "Retry cap per entry per replay cycle")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		Remote: Remote{
			SpaceID:         spaceID,
			Environment:     environment,
			DeliveryToken:   deliveryToken,
			ManagementToken: managementToken,
			DeliveryURL:     deliveryURL,
			ManagementURL:   managementURL,
			RequestTimeout:  requestTimeout,
		},
		Storage: Storage{
			Queue: Queue{
				Path: queuePath,
			},
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		Workers: Workers{
			ReplayInterval:    replayInterval,
			ReplayMaxAttempts: replayMaxAttempts,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
