package plaidclient

import (
	"context"
	"strconv"
	"time"

	"github.com/plaid/plaid-go/v24/plaid"

	"github.com/goalvault/savings-engine/internal/dto"
	"github.com/goalvault/savings-engine/internal/errs"
	"github.com/goalvault/savings-engine/internal/models"
)

const dateLayout = "2006-01-02"

// Adapter implements the bank gateway on top of the Plaid API. Every call
// runs under a bounded timeout so a slow provider surfaces as an error the
// engine can record, never as a hung batch.
type Adapter struct {
	client   *plaid.APIClient
	timeout  time.Duration
	clockNow func() time.Time
}

func NewAdapter(clientID, secret string, env dto.PlaidEnvironment, timeout time.Duration) *Adapter {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(toPlaidEnv(env))

	return &Adapter{
		client:   plaid.NewAPIClient(cfg),
		timeout:  timeout,
		clockNow: time.Now,
	}
}

// GetBalance returns the available balance of the linked account.
func (a *Adapter) GetBalance(ctx context.Context, account *models.BankAccount) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := plaid.NewAccountsBalanceGetRequest(account.AccessToken)
	opts := plaid.NewAccountsBalanceGetRequestOptions()
	opts.SetAccountIds([]string{account.AccountNumber})
	req.SetOptions(*opts)

	resp, _, err := a.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*req).Execute()
	if err != nil {
		return 0, errs.NewExternalServiceError("plaid", "balance fetch failed: "+err.Error(), isTimeout(ctx))
	}

	for _, acct := range resp.GetAccounts() {
		if acct.GetAccountId() != account.AccountNumber {
			continue
		}
		balances := acct.GetBalances()
		if v, ok := balances.GetAvailableOk(); ok && v != nil {
			return *v, nil
		}
		if v, ok := balances.GetCurrentOk(); ok && v != nil {
			return *v, nil
		}
	}
	return 0, errs.NewNotFoundError("account " + account.AccountNumber + " not found at provider")
}

// Transfer moves amount from the source account toward the destination.
// A declined authorization is a non-success, not an error.
func (a *Adapter) Transfer(ctx context.Context, source, destination *models.BankAccount, amount float64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	amountStr := strconv.FormatFloat(amount, 'f', 2, 64)
	user := plaid.NewTransferAuthorizationUserInRequest(source.Name)

	authReq := plaid.NewTransferAuthorizationCreateRequest(
		source.AccessToken,
		source.AccountNumber,
		plaid.TRANSFERTYPE_DEBIT,
		plaid.TRANSFERNETWORK_ACH,
		amountStr,
		*user,
	)
	authReq.SetAchClass(plaid.ACHCLASS_PPD)

	authResp, _, err := a.client.PlaidApi.TransferAuthorizationCreate(ctx).TransferAuthorizationCreateRequest(*authReq).Execute()
	if err != nil {
		return false, errs.NewExternalServiceError("plaid", "transfer authorization failed: "+err.Error(), isTimeout(ctx))
	}

	auth := authResp.GetAuthorization()
	if auth.GetDecision() != "approved" {
		return false, nil
	}

	createReq := plaid.NewTransferCreateRequest(
		source.AccessToken,
		source.AccountNumber,
		auth.GetId(),
		"Savings to "+destination.AccountNumber,
	)

	createResp, _, err := a.client.PlaidApi.TransferCreate(ctx).TransferCreateRequest(*createReq).Execute()
	if err != nil {
		return false, errs.NewExternalServiceError("plaid", "transfer create failed: "+err.Error(), isTimeout(ctx))
	}

	transfer := createResp.GetTransfer()
	switch transfer.GetStatus() {
	case plaid.TRANSFERSTATUS_FAILED, plaid.TRANSFERSTATUS_CANCELLED, plaid.TRANSFERSTATUS_RETURNED:
		return false, nil
	}
	return true, nil
}

// GetTransactionsSince returns the account's transactions from since until
// now, normalized so debits carry negative amounts.
func (a *Adapter) GetTransactionsSince(ctx context.Context, account *models.BankAccount, since time.Time) ([]dto.BankTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := plaid.NewTransactionsGetRequest(
		account.AccessToken,
		since.Format(dateLayout),
		a.clockNow().Format(dateLayout),
	)
	opts := plaid.NewTransactionsGetRequestOptions()
	opts.SetAccountIds([]string{account.AccountNumber})
	opts.SetCount(500)
	opts.SetIncludePersonalFinanceCategory(true)
	req.SetOptions(*opts)

	resp, _, err := a.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
	if err != nil {
		return nil, errs.NewExternalServiceError("plaid", "transaction fetch failed: "+err.Error(), isTimeout(ctx))
	}

	txs := make([]dto.BankTransaction, 0, len(resp.GetTransactions()))
	for _, plaidTx := range resp.GetTransactions() {
		// Plaid reports outflows as positive amounts; flip the sign so a
		// debit is negative like the rest of the engine expects.
		amount := -plaidTx.GetAmount()
		txType := dto.BankCredit
		if amount < 0 {
			txType = dto.BankDebit
		}

		pfc := plaidTx.GetPersonalFinanceCategory()
		category := pfc.GetPrimary()
		if category == "" && len(plaidTx.GetCategory()) > 0 {
			category = plaidTx.GetCategory()[0]
		}

		// The request window is date-granular, so the response is a
		// same-day superset of [since, now). Filter here so callers with
		// sub-day windows never see transactions older than since.
		ts := transactionTime(&plaidTx, a.clockNow)
		if ts.Before(since) {
			continue
		}

		txs = append(txs, dto.BankTransaction{
			Type:        txType,
			Amount:      amount,
			Description: plaidTx.GetName(),
			Category:    category,
			Merchant:    plaidTx.GetMerchantName(),
			Timestamp:   ts,
		})
	}
	return txs, nil
}

// LinkAccount exchanges a public token for the access token used on all
// subsequent calls for the account.
func (a *Adapter) LinkAccount(ctx context.Context, publicToken, accountID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := a.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", errs.NewExternalServiceError("plaid", "public token exchange failed: "+err.Error(), isTimeout(ctx))
	}
	return resp.GetAccessToken(), nil
}

// transactionTime prefers Plaid's posted or authorized datetime; most
// institutions only report a calendar date, which parses to midnight UTC.
func transactionTime(tx *plaid.Transaction, clockNow func() time.Time) time.Time {
	if v, ok := tx.GetDatetimeOk(); ok && v != nil {
		return *v
	}
	if v, ok := tx.GetAuthorizedDatetimeOk(); ok && v != nil {
		return *v
	}
	ts, err := time.Parse(dateLayout, tx.GetDate())
	if err != nil {
		return clockNow()
	}
	return ts
}

func isTimeout(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

func toPlaidEnv(env dto.PlaidEnvironment) plaid.Environment {
	switch env {
	case dto.PlaidSandbox:
		return plaid.Sandbox
	case dto.PlaidDevelopment:
		return plaid.Development
	default: // dto.PlaidProduction
		return plaid.Production
	}
}
