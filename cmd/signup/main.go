// Command signup walks through account creation against a running API and
// then reports the session state seen by the synchronizer.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kinboost-api/internal/client/api"
	"github.com/kinboost-api/internal/client/auth"
	"github.com/kinboost-api/internal/client/authsync"
	"github.com/kinboost-api/internal/client/signup"
)

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("api", envOr("KINBOOST_API_URL", "http://localhost:3000"), "API base URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := api.New(*baseURL, nil)
	session := auth.New(client)

	syncer := authsync.New(session, authsync.RemoteShops{Sessions: session, API: client})
	syncer.Start()
	defer syncer.Stop()

	in := bufio.NewScanner(os.Stdin)
	wiz := signup.New(client, session)

	for wiz.Step() != signup.StepSuccess {
		if ctx.Err() != nil {
			return
		}
		var err error
		switch wiz.Step() {
		case signup.StepEmail:
			err = wiz.SubmitEmail(ctx, prompt(in, "Email"))
		case signup.StepVerification:
			code := prompt(in, "Code reçu par email (r pour renvoyer)")
			if code == "r" {
				err = wiz.Resend(ctx)
			} else {
				err = wiz.SubmitCode(ctx, code)
			}
		case signup.StepPassword:
			pw := prompt(in, "Mot de passe")
			err = wiz.SubmitPassword(ctx, pw, prompt(in, "Confirmer le mot de passe"))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, message(err))
		}
	}
	fmt.Printf("Compte créé: %s\n", wiz.Account().Email)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := syncer.RefreshShop(waitCtx); err != nil {
		log.Printf("WARN: shop lookup: %v", err)
	}

	st := syncer.Snapshot()
	d := authsync.Gate{RequireShop: true}.Decide(st, authsync.RouteDashboard)
	fmt.Printf("État: %s", st.Phase())
	if d.Action == authsync.ActionRedirect {
		fmt.Printf(" -> %s", d.Target)
	}
	fmt.Println()
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		os.Exit(1)
	}
	return strings.TrimSpace(in.Text())
}

func message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
