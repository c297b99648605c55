// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/votehom/votehom/util"
	"github.com/votehom/votehom/version"
)

const (
	defaultConfigFilename = "votehomwww.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "votehomwww.log"
	defaultLogLevel       = "info"
	defaultListenPort     = "4263"
	defaultListen         = "localhost:" + defaultListenPort

	defaultAuditDB = auditDBLevelDB

	defaultMySQLHost   = "localhost:3306"
	defaultMySQLDBName = "votehomwww"

	defaultSessionMaxAge = 60 * 60 * 12 // 12 hours

	auditDBLevelDB = "leveldb"
	auditDBMySQL   = "mysql"
	auditDBMemory  = "memory"
)

var (
	defaultHomeDir    = homeDir("votehomwww")
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for votehomwww.
//
// See loadConfig for details on the configuration load process.
type config struct {
	HomeDir     string `short:"A" long:"appdata" description:"Path to application home directory"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	Listen        string `long:"listen" description:"Address to listen on"`
	HTTPSCert     string `long:"httpscert" description:"File containing the https certificate file"`
	HTTPSKey      string `long:"httpskey" description:"File containing the https certificate key"`
	CookieKeyFile string `long:"cookiekey" description:"File containing the secret cookie key"`
	SessionMaxAge int64  `long:"sessionmaxage" description:"Max age of a session in seconds"`

	AuthorityHost       string `long:"authorityhost" description:"Election authority host (required)"`
	AuthoritySkipVerify bool   `long:"authorityskipverify" description:"Skip TLS certificate verification of the election authority (dev only)"`

	ElectionID       int64  `long:"electionid" description:"Election to serve; 0 discovers an active election"`
	AdminEmail       string `long:"adminemail" description:"Authority admin email, used by election resolution probes and the sealed election workaround"`
	AdminPassword    string `long:"adminpassword" description:"Authority admin password"`
	SealedWorkaround bool   `long:"sealedworkaround" description:"Temporarily unseal a sealed election to cast a vote, then reseal it (requires admin credentials)"`

	AuditDB       string `long:"auditdb" description:"Audit log backend {leveldb, mysql, memory}"`
	MySQLHost     string `long:"mysqlhost" description:"MySQL host for the audit log"`
	MySQLUser     string `long:"mysqluser" description:"MySQL user for the audit log"`
	MySQLPass     string `long:"mysqlpass" description:"MySQL password for the audit log"`
	MySQLDBName   string `long:"mysqldbname" description:"MySQL database name for the audit log"`

	Version string
}

// serviceOptions defines the configuration options for the daemon as a
// service on Windows.
type serviceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

func homeDir(appName string) string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		appName = strings.Title(appName)
	} else {
		appName = "." + appName
	}
	return filepath.Join(h, appName)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		h, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", h, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, so *serviceOptions, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfg, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", so)
	}
	return parser
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "The specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//	1) Start with a default config with sane settings
//	2) Pre-parse the command line to check for an alternative config file
//	3) Load configuration file overwriting defaults with any specified
//	   options
//	4) Parse CLI options and overwrite/add any specified options
//
// The above results in daemon functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		HomeDir:       defaultHomeDir,
		ConfigFile:    defaultConfigFile,
		DataDir:       defaultDataDir,
		LogDir:        defaultLogDir,
		DebugLevel:    defaultLogLevel,
		Listen:        defaultListen,
		SessionMaxAge: defaultSessionMaxAge,
		AuditDB:       defaultAuditDB,
		MySQLHost:     defaultMySQLHost,
		MySQLDBName:   defaultMySQLDBName,
		Version:       version.String(),
	}

	// Service options which are only added on Windows.
	serviceOpts := serviceOptions{}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, &serviceOpts, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.String(), runtime.Version(), runtime.GOOS,
			runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory if specified. Since the home directory is
	// updated, other variables need to be updated to reflect the new
	// changes.
	if preCfg.HomeDir != "" {
		cfg.HomeDir = cleanAndExpandPath(preCfg.HomeDir)

		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir,
				defaultConfigFilename)
		} else {
			cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir,
				defaultDataDirname)
		} else {
			cfg.DataDir = cleanAndExpandPath(preCfg.DataDir)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir,
				defaultLogDirname)
		} else {
			cfg.LogDir = cleanAndExpandPath(preCfg.LogDir)
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(&cfg, &serviceOpts, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			fmt.Fprintln(os.Stderr, usageMessage())
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage())
		}
		return nil, nil, err
	}

	// Clean and expand all file paths.
	cfg.HomeDir = cleanAndExpandPath(cfg.HomeDir)
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.HTTPSCert = cleanAndExpandPath(cfg.HTTPSCert)
	cfg.HTTPSKey = cleanAndExpandPath(cfg.HTTPSKey)
	cfg.CookieKeyFile = cleanAndExpandPath(cfg.CookieKeyFile)

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err = os.MkdirAll(cfg.HomeDir, 0700)
	if err != nil {
		str := "%s: Failed to create home directory: %v"
		err := fmt.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After log rotation has been initialized,
	// the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage())
		return nil, nil, err
	}

	// Normalize the listen address.
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	cfg.Listen = util.NormalizeAddress(cfg.Listen, defaultListenPort)

	// The authority host is the one setting votehomwww cannot run
	// without.
	if cfg.AuthorityHost == "" {
		str := "%s: The authorityhost option is required"
		err := fmt.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	cfg.AuthorityHost = strings.TrimSuffix(cfg.AuthorityHost, "/")
	u, err := url.Parse(cfg.AuthorityHost)
	if err != nil || u.Scheme == "" {
		str := "%s: Invalid authorityhost '%v': must be a http(s) URL"
		err := fmt.Errorf(str, funcName, cfg.AuthorityHost)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// The sealed election workaround needs admin credentials to flip the
	// election status.
	if cfg.SealedWorkaround &&
		(cfg.AdminEmail == "" || cfg.AdminPassword == "") {
		str := "%s: The sealedworkaround option requires adminemail " +
			"and adminpassword"
		err := fmt.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	switch cfg.AuditDB {
	case auditDBLevelDB, auditDBMemory:
		// Nothing to validate.
	case auditDBMySQL:
		if cfg.MySQLUser == "" {
			str := "%s: The mysql audit backend requires mysqluser"
			err := fmt.Errorf(str, funcName)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	default:
		str := "%s: Invalid auditdb '%v'; must be one of %v"
		err := fmt.Errorf(str, funcName, cfg.AuditDB,
			[]string{auditDBLevelDB, auditDBMySQL, auditDBMemory})
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = defaultSessionMaxAge
	}

	if cfg.CookieKeyFile == "" {
		cfg.CookieKeyFile = filepath.Join(cfg.DataDir, "cookie.key")
	}

	// TLS is optional. Both the cert and the key must be set to enable
	// it.
	if (cfg.HTTPSCert == "") != (cfg.HTTPSKey == "") {
		str := "%s: httpscert and httpskey must be set together"
		err := fmt.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration
	// is done. This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}

func usageMessage() string {
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	return fmt.Sprintf("Use %s -h to show usage", appName)
}
