// Command ccc is the Cloud CLI Access client: it authenticates against
// IAM Identity Center with the device authorization grant and manages the
// cached short-lived credentials.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	awsclient "github.com/andre-2112/cloud-cli-access/aws"
	"github.com/andre-2112/cloud-cli-access/auth"
	"github.com/andre-2112/cloud-cli-access/config"
	"github.com/andre-2112/cloud-cli-access/styles"
)

const version = "1.0.0"

const usage = `ccc - Cloud CLI Access

Usage:
  ccc configure   Configure SSO start URL, region, account and role
  ccc login       Authenticate and obtain AWS credentials
  ccc logout      Clear cached credentials
  ccc status      Show authentication status and credential expiration
  ccc test        Verify cached credentials against AWS APIs
  ccc version     Print version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "configure":
		err = runConfigure(os.Args[2:])
	case "login":
		err = runLogin(os.Args[2:])
	case "logout":
		err = runLogout(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "test":
		err = runTest(os.Args[2:])
	case "version", "--version":
		fmt.Println("ccc", version)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println()
			fmt.Println(styles.Warning("Operation cancelled"))
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, styles.Error(err.Error()))
		os.Exit(1)
	}
}

func runLogin(args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ExitOnError)
	export := fs.Bool("export", false, "also write credentials to the default profile of ~/.aws/credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := config.NewManager()
	if err != nil {
		return err
	}
	settings, err := mgr.LoadSettings()
	if err != nil {
		return err
	}
	if !settings.Complete() {
		return errors.New("ccc is not configured - run 'ccc configure' first")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := awsclient.NewClient(ctx, settings.SSORegion)
	if err != nil {
		return err
	}

	cached, err := auth.New(client, mgr, settings).Login(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if *export {
		creds := cached.Credentials
		if err := config.WriteAWSCredentials(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken, settings.SSORegion); err != nil {
			return fmt.Errorf("credentials cached, but export to ~/.aws/credentials failed: %w", err)
		}
		fmt.Println(styles.Success("Credentials exported to ~/.aws/credentials (default profile)"))
	}

	fmt.Println()
	fmt.Println(styles.Success("Login successful!"))
	fmt.Println(styles.Highlight("You can now use CCC commands that require AWS access"))
	return nil
}

func runLogout(args []string) error {
	mgr, err := config.NewManager()
	if err != nil {
		return err
	}
	if err := mgr.ClearCredentials(); err != nil {
		return err
	}
	fmt.Println(styles.Success("Logged out successfully"))
	return nil
}

func runStatus(args []string) error {
	mgr, err := config.NewManager()
	if err != nil {
		return err
	}

	cached, ok, err := mgr.InspectCredentials()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(styles.Warning("Not logged in"))
		fmt.Println(styles.Highlight("Run 'ccc login' to authenticate"))
		return nil
	}

	now := time.Now()
	expired := cached.ExpiredAt(now)

	fmt.Println()
	fmt.Println(styles.TitleStyle.Render("Authentication Status"))
	if expired {
		fmt.Println("  Status:        " + styles.Error("Expired"))
	} else {
		fmt.Println("  Status:        " + styles.Success("Authenticated"))
	}
	fmt.Println("  SSO Start URL: " + cached.SSOStartURL)
	fmt.Println("  Account ID:    " + cached.AccountID)
	fmt.Println("  Role Name:     " + cached.RoleName)
	fmt.Println("  Cached:        " + cached.CachedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println("  Expires:       " + cached.ExpiresAt().Format("2006-01-02 15:04:05 UTC"))

	if !expired {
		remaining := cached.ExpiresAt().Sub(now).Round(time.Minute)
		fmt.Printf("  Time Remaining: %dh %dm\n", int(remaining.Hours()), int(remaining.Minutes())%60)
	}
	fmt.Println()
	return nil
}

func runTest(args []string) error {
	mgr, err := config.NewManager()
	if err != nil {
		return err
	}

	fmt.Println(styles.Highlight("Testing Cloud CLI Access credentials..."))
	fmt.Println()

	cached, ok, err := mgr.LoadCredentials()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(styles.Error("Not logged in or credentials expired"))
		fmt.Println(styles.Warning("Run 'ccc login' first"))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	region := cached.SSORegion
	if region == "" {
		region = config.DefaultSSORegion
	}
	client, err := awsclient.NewCredentialedClient(ctx, region, awsclient.RoleCredentials{
		AccessKeyID:     cached.Credentials.AccessKeyID,
		SecretAccessKey: cached.Credentials.SecretAccessKey,
		SessionToken:    cached.Credentials.SessionToken,
		Expiration:      cached.Credentials.Expiration,
	})
	if err != nil {
		return err
	}

	fmt.Println(styles.Highlight("Test 1: STS GetCallerIdentity"))
	if identity, err := client.CallerIdentity(ctx); err != nil {
		fmt.Println("  " + styles.Error("Failed: "+awsclient.ErrorSummary(err)))
	} else {
		fmt.Println("  " + styles.Success("Success"))
		fmt.Println("    User ARN: " + identity.ARN)
		fmt.Println("    Account:  " + identity.Account)
	}

	fmt.Println()
	fmt.Println(styles.Highlight("Test 2: S3 ListBuckets"))
	if n, err := client.BucketCount(ctx); err != nil {
		fmt.Println("  " + styles.Error("Failed: "+awsclient.ErrorSummary(err)))
	} else {
		fmt.Println("  " + styles.Success("Success"))
		fmt.Printf("    Buckets: %d\n", n)
	}

	fmt.Println()
	fmt.Println(styles.Highlight("Test 3: EC2 DescribeRegions"))
	if n, err := client.RegionCount(ctx); err != nil {
		fmt.Println("  " + styles.Error("Failed: "+awsclient.ErrorSummary(err)))
	} else {
		fmt.Println("  " + styles.Success("Success"))
		fmt.Printf("    Regions available: %d\n", n)
	}

	fmt.Println()
	fmt.Println(styles.Success("All tests completed"))
	return nil
}
