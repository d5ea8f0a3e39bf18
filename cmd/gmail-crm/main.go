// Gmail CRM server exposes an inbox and a composer through Model Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-crm/internal/auth"
	"github.com/hal9000y/gmail-crm/internal/config"
	"github.com/hal9000y/gmail-crm/internal/gservice"
	"github.com/hal9000y/gmail-crm/internal/mailbox"
	"github.com/hal9000y/gmail-crm/internal/mimecodec"
	"github.com/hal9000y/gmail-crm/internal/tool"
)

func main() {
	httpAddr := flag.String("http-addr", "localhost:0", "HTTP SERVER listen addr")
	sessionFile := flag.String("session-file", "./data/gmail-crm-session.json", "Path to cache google oauth token and account, empty to avoid storing")
	oauthURLParam := flag.String("oauth-url", "", "OAuth URL")
	envFileParam := flag.String("env-file", "", "Path to env file")
	enableStdio := flag.Bool("stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	persistLogs := setupLogger(*enableStdio, *logFile)
	defer persistLogs()

	cfg, err := config.Load(*envFileParam)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}

	ln := mustListen(*httpAddr)

	redirectURL := fmt.Sprintf("http://%s/oauth", ln.Addr().String())
	if *oauthURLParam != "" {
		redirectURL = *oauthURLParam
	}
	oauthCfg := cfg.OAuth2(redirectURL)

	sess, err := auth.NewSession(oauthCfg, *sessionFile)
	if err != nil {
		panic(fmt.Errorf("auth.NewSession failed: %w", err))
	}

	defer func() {
		log.Println("Persisting session if exists")
		if err := sess.Persist(); err != nil {
			log.Println(fmt.Errorf("sess.Persist failed: %w", err))
		}
	}()

	if err := os.MkdirAll(cfg.AttachmentDir, 0700); err != nil {
		panic(fmt.Errorf("os.MkdirAll failed: %w", err))
	}
	log.Println("Attachments are read from", cfg.AttachmentDir)

	gm := gservice.NewGmail(oauthCfg, sess)
	box := mailbox.NewService(gm, sess, mimecodec.NewEncoder(), cfg)

	connect := func(ctx context.Context) {
		account, err := box.Connect(ctx)
		if err != nil {
			log.Println(fmt.Errorf("box.Connect failed: %w", err))
			return
		}
		log.Println("Connected account", account)
	}
	authHTTP := auth.NewHTTPHandler(sess, connect)

	mux := http.NewServeMux()
	mux.Handle("/oauth", authHTTP)
	mux.Handle("/disconnect", auth.NewDisconnectHandler(box.Disconnect))

	crmT := tool.NewServer(box)
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return crmT }, nil)

	mux.Handle("/mcp", mcpHTTP)

	srv := &http.Server{
		Handler: mux,
	}

	shutdown := make(chan os.Signal, 1)

	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	if _, err := sess.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) {
		openBrowser(redirectURL)
	} else if sess.Account() == "" {
		go connect(context.Background())
	}

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(crmT)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			errStdioCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr string) net.Listener {
	if httpAddr == "" {
		panic("-http-addr must be provided")
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func setupLogger(enableStdio bool, logFile string) func() {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}

func openBrowser(url string) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		log.Printf("Could not open browser automatically: %v; please copy and open link in the browser: %s\n", err, url)
	}
}
