package http

import (
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/session"
	"fintrack/internal/wizard"
)

// transactionWire is the JSON shape of a transaction on this API. Amounts are
// integer cents; no floats cross the boundary.
type transactionWire struct {
	ID                 string          `json:"id"`
	AmountCents        int64           `json:"amountCents"`
	CategoryID         string          `json:"categoryId,omitempty"`
	CategoryName       string          `json:"categoryName,omitempty"`
	Description        string          `json:"description,omitempty"`
	OccurredOn         string          `json:"occurredOn,omitempty"`
	Type               string          `json:"type"`
	AccountID          string          `json:"accountId,omitempty"`
	PersonalShareCents int64           `json:"personalShareCents,omitempty"`
	OwedShareCents     int64           `json:"owedShareCents,omitempty"`
	ShareMetadata      string          `json:"shareMetadata,omitempty"`
	Recurrence         *recurrenceWire `json:"recurrence,omitempty"`
	Refunded           bool            `json:"refunded,omitempty"`
}

type recurrenceWire struct {
	Frequency      string `json:"frequency"`
	VariableAmount bool   `json:"variableAmount"`
}

func (t transactionWire) toDomain() (core.Transaction, error) {
	txn := core.Transaction{
		ID:            t.ID,
		Amount:        core.Money{Cents: t.AmountCents},
		Category:      core.Category{ID: t.CategoryID, Name: t.CategoryName},
		Description:   t.Description,
		Type:          core.TransactionType(t.Type),
		AccountID:     t.AccountID,
		PersonalShare: core.Money{Cents: t.PersonalShareCents},
		OwedShare:     core.Money{Cents: t.OwedShareCents},
		ShareMetadata: t.ShareMetadata,
		Refunded:      t.Refunded,
	}
	if t.ID == "" {
		return core.Transaction{}, fmt.Errorf("transaction id is required")
	}
	if txn.Type != core.Debit && txn.Type != core.Credit {
		return core.Transaction{}, fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if t.OccurredOn != "" {
		d, err := parseDate(t.OccurredOn)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid occurredOn %q", t.OccurredOn)
		}
		txn.OccurredOn = d
	}
	if t.Recurrence != nil {
		txn.Recurrence = &core.Recurrence{
			Frequency:      t.Recurrence.Frequency,
			VariableAmount: t.Recurrence.VariableAmount,
		}
	}
	return txn, nil
}

func fromDomain(txn core.Transaction) transactionWire {
	w := transactionWire{
		ID:                 txn.ID,
		AmountCents:        txn.Amount.Cents,
		CategoryID:         txn.Category.ID,
		CategoryName:       txn.Category.Name,
		Description:        txn.Description,
		Type:               string(txn.Type),
		AccountID:          txn.AccountID,
		PersonalShareCents: txn.PersonalShare.Cents,
		OwedShareCents:     txn.OwedShare.Cents,
		ShareMetadata:      txn.ShareMetadata,
		Refunded:           txn.Refunded,
	}
	if !txn.OccurredOn.IsZero() {
		w.OccurredOn = txn.OccurredOn.Format("2006-01-02")
	}
	if txn.Recurrence != nil {
		w.Recurrence = &recurrenceWire{
			Frequency:      txn.Recurrence.Frequency,
			VariableAmount: txn.Recurrence.VariableAmount,
		}
	}
	return w
}

// createSessionRequest opens a wizard for one transaction.
type createSessionRequest struct {
	Transaction transactionWire `json:"transaction"`
	Mode        string          `json:"mode"`
}

// commandRequest is one wizard edit. Op selects the command; the remaining
// fields are read per op.
type commandRequest struct {
	Op           string `json:"op"`
	Index        int    `json:"index,omitempty"`
	Value        string `json:"value,omitempty"`
	CategoryID   string `json:"categoryId,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
	SplitType    string `json:"splitType,omitempty"`
}

func (c commandRequest) toCommand() (wizard.Command, error) {
	switch c.Op {
	case "addDraft":
		return wizard.AddDraft{}, nil
	case "setDraftAmount":
		return wizard.SetDraftAmount{Index: c.Index, Raw: c.Value}, nil
	case "setDraftDescription":
		return wizard.SetDraftDescription{Index: c.Index, Text: c.Value}, nil
	case "setDraftCategory":
		return wizard.SetDraftCategory{
			Index:    c.Index,
			Category: core.Category{ID: c.CategoryID, Name: c.CategoryName},
		}, nil
	case "removeDraft":
		return wizard.RemoveDraft{Index: c.Index}, nil
	case "expandDraft":
		return wizard.ExpandDraft{Index: c.Index}, nil
	case "setSplitType":
		return wizard.SetSplitType{Type: core.SplitType(c.SplitType)}, nil
	case "setShareAmount":
		return wizard.SetShareAmount{Raw: c.Value}, nil
	case "setPercentage":
		return wizard.SetPercentage{Raw: c.Value}, nil
	case "setYourShares":
		return wizard.SetYourShares{Raw: c.Value}, nil
	case "setTotalShares":
		return wizard.SetTotalShares{Raw: c.Value}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", c.Op)
	}
}

// sessionView is the full wizard state returned after every request, so
// clients re-render without keeping local state.
type sessionView struct {
	SessionID   string          `json:"sessionId"`
	Mode        string          `json:"mode"`
	Step        string          `json:"step"`
	Transaction transactionWire `json:"transaction"`

	Drafts        []draftView     `json:"drafts,omitempty"`
	ExpandedIndex int             `json:"expandedIndex"`
	Aggregates    *aggregatesView `json:"aggregates,omitempty"`

	Share *shareView `json:"share,omitempty"`
}

type draftView struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
	Valid       bool   `json:"valid"`
}

type aggregatesView struct {
	Remaining  string `json:"remaining"`
	TotalSplit string `json:"totalSplit"`
	Valid      bool   `json:"valid"`
}

type shareView struct {
	SplitType   string `json:"splitType"`
	Personal    string `json:"personal"`
	Owed        string `json:"owed"`
	AmountRaw   string `json:"amountRaw,omitempty"`
	Percentage  string `json:"percentage,omitempty"`
	YourShares  string `json:"yourShares,omitempty"`
	TotalShares string `json:"totalShares,omitempty"`
}

func viewOf(sess *session.Session) sessionView {
	w := sess.Wizard
	view := sessionView{
		SessionID:     sess.ID,
		Mode:          string(w.Mode()),
		Step:          string(w.Step()),
		Transaction:   fromDomain(w.Transaction()),
		ExpandedIndex: ledger.NoExpansion,
	}

	switch w.Mode() {
	case wizard.ModeSplit:
		drafts := w.Drafts()
		view.Drafts = make([]draftView, len(drafts))
		for i, d := range drafts {
			view.Drafts[i] = draftView{
				Amount:      d.RawAmount,
				Description: d.Description,
				CategoryID:  d.Category.ID,
				Valid:       d.Valid(),
			}
		}
		view.ExpandedIndex = w.Expanded()
		agg := w.Aggregates()
		view.Aggregates = &aggregatesView{
			Remaining:  agg.Remaining.String(),
			TotalSplit: agg.TotalSplit.String(),
			Valid:      agg.Valid,
		}
	case wizard.ModeShare:
		s := w.Share()
		view.Share = &shareView{
			SplitType:   string(s.SplitType),
			Personal:    s.Personal.String(),
			Owed:        s.Owed.String(),
			AmountRaw:   s.AmountRaw,
			Percentage:  s.Percentage,
			YourShares:  s.YourShares,
			TotalShares: s.TotalShares,
		}
	}

	return view
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// confirmResponse reports what the commit produced. For a split the parent
// and children come back; for a share the single updated transaction.
type confirmResponse struct {
	Parent   *transactionWire  `json:"parent,omitempty"`
	Children []transactionWire `json:"children,omitempty"`
	Updated  *transactionWire  `json:"updated,omitempty"`
}
