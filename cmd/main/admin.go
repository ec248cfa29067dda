package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raulisai/Gateway-IA/src/auth"
	"github.com/raulisai/Gateway-IA/src/vault"
)

// adminCommand is the one-shot key or credential operation selected by flags.
type adminCommand struct {
	IssueKey         bool
	KeyName          string
	RevokeKey        string
	SetCredential    bool
	DeleteCredential bool
	Tenant           string
	Provider         string
	Credential       string
}

func adminFromFlags() adminCommand {
	return adminCommand{
		IssueKey:         *issueKey,
		KeyName:          *keyName,
		RevokeKey:        strings.TrimSpace(*revokeKey),
		SetCredential:    *setCredential,
		DeleteCredential: *deleteCredential,
		Tenant:           strings.TrimSpace(*tenantFlag),
		Provider:         strings.TrimSpace(*providerFlag),
		Credential:       *credential,
	}
}

func (c adminCommand) requested() bool {
	return c.IssueKey || c.RevokeKey != "" || c.SetCredential || c.DeleteCredential
}

// runAdmin handles the one-shot key and credential commands.
func runAdmin(ctx context.Context, out io.Writer, cmd adminCommand, keys *auth.KeyStore, credentials *vault.Vault) error {
	if cmd.RevokeKey != "" {
		if err := keys.Revoke(ctx, cmd.RevokeKey); err != nil {
			return fmt.Errorf("revoke key: %w", err)
		}
		fmt.Fprintln(out, "key revoked")
	}

	if !cmd.IssueKey && !cmd.SetCredential && !cmd.DeleteCredential {
		return nil
	}
	if cmd.Tenant == "" {
		return errors.New("-tenant is required")
	}
	if (cmd.SetCredential || cmd.DeleteCredential) && cmd.Provider == "" {
		return errors.New("-provider is required")
	}

	if cmd.IssueKey {
		key, record, err := keys.Issue(ctx, cmd.Tenant, cmd.KeyName)
		if err != nil {
			return fmt.Errorf("issue key: %w", err)
		}
		fmt.Fprintf(out, "tenant:  %s\nname:    %s\nprefix:  %s\nkey:     %s\n", record.Tenant, record.Name, record.Prefix, key)
		fmt.Fprintln(out, "The key is shown once; store it now.")
	}

	if cmd.SetCredential {
		secret := cmd.Credential
		if secret == "" {
			secret = os.Getenv("PROVIDER_API_KEY")
		}
		if err := credentials.Put(ctx, cmd.Tenant, cmd.Provider, secret); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
		fmt.Fprintf(out, "stored %s credential for tenant %s\n", cmd.Provider, cmd.Tenant)
	}

	if cmd.DeleteCredential {
		if err := credentials.Delete(ctx, cmd.Tenant, cmd.Provider); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		fmt.Fprintf(out, "deleted %s credential for tenant %s\n", cmd.Provider, cmd.Tenant)
	}
	return nil
}
