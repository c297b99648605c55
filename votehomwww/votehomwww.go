// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/robfig/cron"
	"github.com/votehom/votehom/auditlog"
	auditlocaldb "github.com/votehom/votehom/auditlog/localdb"
	auditmemory "github.com/votehom/votehom/auditlog/memory"
	auditmysql "github.com/votehom/votehom/auditlog/mysql"
	"github.com/votehom/votehom/authority"
	"github.com/votehom/votehom/util"
	"github.com/votehom/votehom/version"
	www "github.com/votehom/votehom/votehomwww/api/v1"
	"github.com/votehom/votehom/votehomwww/sessions"
	sessionlocaldb "github.com/votehom/votehom/votehomwww/sessions/localdb"
	"github.com/votehom/votehom/voting"
)

const (
	csrfKeyLength = 32

	// electionRefreshInterval bounds how long a resolved election is
	// served from cache before resolution runs again.
	electionRefreshInterval = 5 * time.Minute
)

// permission is the access level of a route.
type permission uint

const (
	permissionPublic permission = iota
	permissionLogin
)

// votehomwww is the votehom voting portal.
type votehomwww struct {
	cfg    *config
	router *mux.Router
	store  *sessions.Store
	voting *voting.Service
	audit  auditlog.DB

	// The resolved election is cached; resolution walks several
	// authority probes and must not run on every request.
	mtx        sync.RWMutex
	election   *voting.Election
	resolvedAt time.Time
}

// resolvedElection returns the election this portal serves, resolving it
// with the authority when the cache is empty or stale.
func (v *votehomwww) resolvedElection(ctx context.Context) (*voting.Election, error) {
	v.mtx.RLock()
	e := v.election
	resolvedAt := v.resolvedAt
	v.mtx.RUnlock()
	if e != nil && time.Since(resolvedAt) < electionRefreshInterval {
		return e, nil
	}

	resolved, err := v.voting.ResolveElection(ctx)
	if err != nil {
		// Serve the stale election rather than nothing.
		if e != nil {
			log.Warnf("Election resolution failed, serving "+
				"cached election %v: %v", e.ID, err)
			return e, nil
		}
		return nil, err
	}

	v.mtx.Lock()
	v.election = resolved
	v.resolvedAt = time.Now()
	v.mtx.Unlock()

	return resolved, nil
}

// handleVersion returns the API version. It is also the route that hands
// out CSRF tokens.
func (v *votehomwww) handleVersion(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleVersion")

	w.Header().Set(www.CsrfToken, csrf.Token(r))
	util.RespondWithJSON(w, http.StatusOK, www.VersionReply{
		Version:      www.APIVersion,
		Route:        www.APIRoute,
		BuildVersion: version.String(),
	})
}

// handleNotFound is a generic handler for an invalid route.
func (v *votehomwww) handleNotFound(w http.ResponseWriter, r *http.Request) {
	// Log incoming connection
	log.Debugf("Invalid route: %v %v %v %v", remoteAddr(r), r.Method,
		r.URL, r.Proto)

	util.RespondWithJSON(w, http.StatusNotFound, www.ErrorReply{})
}

// addRoute sets up a handler for a specific method+route.
func (v *votehomwww) addRoute(method string, route string, handler http.HandlerFunc, perm permission) {
	fullRoute := www.APIRoute + route

	switch perm {
	case permissionLogin:
		handler = logging(v.isLoggedIn(handler))
	default:
		handler = logging(handler)
	}

	// All handlers need to close the body
	handler = closeBody(handler)

	v.router.StrictSlash(true).HandleFunc(fullRoute, handler).Methods(method)
}

// setVotehomWWWRoutes sets up the portal API routes.
func (v *votehomwww) setVotehomWWWRoutes() {
	v.router.NotFoundHandler = closeBody(v.handleNotFound)

	// Public routes
	v.addRoute(http.MethodGet, www.RouteVersion,
		v.handleVersion, permissionPublic)
	v.addRoute(http.MethodGet, www.RouteStatus,
		v.handleStatus, permissionPublic)
	v.addRoute(http.MethodPost, www.RouteLogin,
		v.handleLogin, permissionPublic)
	v.addRoute(http.MethodGet, www.RouteSystemIntegrity,
		v.handleSystemIntegrity, permissionPublic)
	v.addRoute(http.MethodPost, www.RouteResetRequest,
		v.handleResetRequest, permissionPublic)
	v.addRoute(http.MethodPost, www.RouteResetPassword,
		v.handleResetPassword, permissionPublic)

	// Routes that require being logged in
	v.addRoute(http.MethodPost, www.RouteLogout,
		v.handleLogout, permissionLogin)
	v.addRoute(http.MethodPost, www.RouteBallot,
		v.handleBallotStart, permissionLogin)
	v.addRoute(http.MethodGet, www.RouteBallot,
		v.handleBallot, permissionLogin)
	v.addRoute(http.MethodPost, www.RouteBallotChoice,
		v.handleBallotChoice, permissionLogin)
	v.addRoute(http.MethodPost, www.RouteBallotBack,
		v.handleBallotBack, permissionLogin)
	v.addRoute(http.MethodPost, www.RouteBallotSubmit,
		v.handleBallotSubmit, permissionLogin)
	v.addRoute(http.MethodGet, www.RouteReceipt,
		v.handleReceipt, permissionLogin)
	v.addRoute(http.MethodGet, www.RouteHistory,
		v.handleHistory, permissionLogin)
	v.addRoute(http.MethodGet, www.RouteCandidatePhoto,
		v.handleCandidatePhoto, permissionLogin)
}

// openAuditDB opens the configured audit log backend.
func openAuditDB(cfg *config) (auditlog.DB, error) {
	switch cfg.AuditDB {
	case auditDBLevelDB:
		return auditlocaldb.New(cfg.DataDir)
	case auditDBMySQL:
		dsn := fmt.Sprintf("%v:%v@tcp(%v)/%v", cfg.MySQLUser,
			cfg.MySQLPass, cfg.MySQLHost, cfg.MySQLDBName)
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		err = db.Ping()
		if err != nil {
			return nil, fmt.Errorf("mysql ping: %v", err)
		}
		return auditmysql.New(db, nil)
	case auditDBMemory:
		log.Warnf("Using the in memory audit log; the audit trail " +
			"will not survive a restart")
		return auditmemory.New(), nil
	}
	return nil, fmt.Errorf("unknown audit backend %v", cfg.AuditDB)
}

func _main() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	loadedCfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("Could not load configuration file: %v", err)
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	log.Infof("Version  : %v", version.String())
	log.Infof("Home dir : %v", loadedCfg.HomeDir)
	log.Infof("Authority: %v", loadedCfg.AuthorityHost)
	if loadedCfg.ElectionID != 0 {
		log.Infof("Election : %v", loadedCfg.ElectionID)
	} else {
		log.Infof("Election : autodiscover")
	}
	if loadedCfg.SealedWorkaround {
		log.Infof("Sealed election workaround ENABLED")
	}

	// Create the data directory in case it does not exist.
	err = os.MkdirAll(loadedCfg.DataDir, 0700)
	if err != nil {
		return err
	}

	// Setup the election authority client and the audit log.
	client, err := authority.New(loadedCfg.AuthorityHost,
		loadedCfg.AuthoritySkipVerify)
	if err != nil {
		return err
	}
	audit, err := openAuditDB(loadedCfg)
	if err != nil {
		return err
	}
	defer audit.Close()

	// Setup application context.
	v := &votehomwww{
		cfg:   loadedCfg,
		audit: audit,
		voting: voting.New(client, audit, voting.Config{
			ElectionID:       loadedCfg.ElectionID,
			AdminEmail:       loadedCfg.AdminEmail,
			AdminPassword:    loadedCfg.AdminPassword,
			SealedWorkaround: loadedCfg.SealedWorkaround,
		}),
	}

	// Load or create new CSRF key
	log.Infof("Load CSRF key")
	csrfKeyFilename := filepath.Join(v.cfg.DataDir, "csrf.key")
	fCSRF, err := os.Open(csrfKeyFilename)
	if err != nil {
		if os.IsNotExist(err) {
			key, err := util.Random(csrfKeyLength)
			if err != nil {
				return err
			}

			// Persist key
			fCSRF, err = os.OpenFile(csrfKeyFilename,
				os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return err
			}
			_, err = fCSRF.Write(key)
			if err != nil {
				return err
			}
			_, err = fCSRF.Seek(0, 0)
			if err != nil {
				return err
			}
		} else {
			return err
		}
	}
	csrfKey := make([]byte, csrfKeyLength)
	r, err := fCSRF.Read(csrfKey)
	if err != nil {
		return err
	}
	if r != csrfKeyLength {
		return fmt.Errorf("CSRF key corrupt")
	}
	fCSRF.Close()

	csrfHandle := csrf.Protect(csrfKey, csrf.Path("/"))

	v.router = mux.NewRouter()
	v.setVotehomWWWRoutes()

	// Persist session cookies.
	var cookieKey []byte
	if cookieKey, err = os.ReadFile(v.cfg.CookieKeyFile); err != nil {
		log.Infof("Cookie key not found, generating one...")
		cookieKey, err = util.Random(32)
		if err != nil {
			return err
		}
		err = os.WriteFile(v.cfg.CookieKeyFile, cookieKey, 0400)
		if err != nil {
			return err
		}
		log.Infof("Cookie key generated.")
	}
	sessionDB, err := sessionlocaldb.New(v.cfg.DataDir)
	if err != nil {
		return err
	}
	defer sessionDB.Close()
	v.store = sessions.NewStore(sessionDB, int(v.cfg.SessionMaxAge),
		cookieKey)

	// Prune expired sessions periodically.
	c := cron.New()
	err = c.AddFunc("@hourly", func() {
		err := v.store.Prune(v.cfg.SessionMaxAge)
		if err != nil {
			log.Errorf("Session prune: %v", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	// Bind to a port and pass our router in
	listenC := make(chan error)
	go func() {
		srv := &http.Server{
			Handler:      csrfHandle(recoverMiddleware(v.router)),
			Addr:         v.cfg.Listen,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		if v.cfg.HTTPSCert != "" {
			srv.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
			log.Infof("Listen: %v (https)", v.cfg.Listen)
			listenC <- srv.ListenAndServeTLS(v.cfg.HTTPSCert,
				v.cfg.HTTPSKey)
			return
		}
		log.Infof("Listen: %v", v.cfg.Listen)
		listenC <- srv.ListenAndServe()
	}()

	// Tell user we are ready to go.
	log.Infof("Start of day")

	// Setup OS signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigs:
		log.Infof("Terminating with %v", sig)
	case err := <-listenC:
		log.Errorf("%v", err)
	}

	log.Infof("Exiting")

	return nil
}

func main() {
	err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
