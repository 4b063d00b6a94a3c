package http

import (
	"errors"
	"fmt"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// expenseForm is what the add and edit forms render and re-render.
type expenseForm struct {
	pageMeta
	ID          int64
	Date        string
	Category    string
	Description string
	Amount      string
	Recurring   bool
	Frequency   string
	Paid        bool
	Redirect    string
	Frequencies []core.Frequency
}

var frequencies = []core.Frequency{core.Weekly, core.BiWeekly, core.Monthly, core.Annually}

func (s *Server) newExpenseForm(title string) expenseForm {
	return expenseForm{
		pageMeta:    s.meta(title, "budget"),
		Date:        core.DateOf(s.today()).String(),
		Frequency:   string(core.Monthly),
		Frequencies: frequencies,
	}
}

func expenseFormFrom(e core.Expense) expenseForm {
	return expenseForm{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount.Decimal(),
		Recurring:   e.Recurring,
		Frequency:   string(e.Frequency),
		Paid:        e.Paid,
		Frequencies: frequencies,
	}
}

// expenseFromFields builds an expense from form or JSON fields. Field
// errors are the core validation sentinels.
func expenseFromFields(f fieldSource) (core.Expense, error) {
	date, err := core.ParseDate(f.Get("date"))
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Get("amount"))
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Date:        date,
		Category:    f.Get("category"),
		Description: f.Get("description"),
		Amount:      core.Money{Cents: cents},
		Recurring:   f.Bool("recurring"),
		Paid:        f.Bool("paid"),
	}
	if e.Recurring {
		freq, err := core.ParseFrequency(f.Get("frequency"))
		if err != nil {
			return core.Expense{}, err
		}
		e.Frequency = freq
	}
	return e, nil
}

// validationMessage turns a validation sentinel into text for the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter an amount greater than zero."
	case errors.Is(err, core.ErrNegativeAmount):
		return "Amounts cannot be negative."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Please enter a category."
	case errors.Is(err, core.ErrDescriptionLength):
		return "The description can be at most 200 characters."
	case errors.Is(err, core.ErrInvalidFrequency):
		return "Please choose how often the expense repeats."
	case errors.Is(err, core.ErrInvalidIncomeType):
		return "Please choose an income type."
	case errors.Is(err, core.ErrEmptyPayType):
		return "Please choose a pay type."
	}
	return "The submitted data is not valid."
}

func (s *Server) handleExpenseForm(w http.ResponseWriter, r *http.Request) {
	form := s.newExpenseForm("Add Expense")
	form.Redirect = safeRedirect(r.URL.Query().Get("redirect"), "/budget")
	modal := parseBool(r.URL.Query().Get("modal"))
	form.Modal = modal
	s.render(w, r, http.StatusOK, "expense_form.html", form, modal)
}

// handleExpenseFormSubmit is the classic form post: 303 on success, the
// form again with a 422 on invalid input.
func (s *Server) handleExpenseFormSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	fields := formValues(r.PostForm)
	redirect := safeRedirect(fields.Get("redirect"), "/budget")

	e, err := expenseFromFields(fields)
	if err == nil {
		e, err = s.ledger.CreateExpense(ctx, e)
	}
	if err != nil {
		if core.IsValidationError(err) {
			form := s.newExpenseForm("Add Expense")
			form.Date = fields.Get("date")
			form.Category = fields.Get("category")
			form.Description = fields.Get("description")
			form.Amount = fields.Get("amount")
			form.Recurring = fields.Bool("recurring")
			form.Frequency = fields.Get("frequency")
			form.Paid = fields.Bool("paid")
			form.Redirect = redirect
			form.Error = validationMessage(err)
			s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", form, false)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save expense",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "Error adding expense. Please try again.")
		return
	}

	Redirect(redirect).Write(w)
}

// handleAPIExpense creates an expense from a JSON body.
func (s *Server) handleAPIExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil || !p.IsJSON() {
		JSONError(http.StatusBadRequest, msgNoData).Write(w)
		return
	}

	e, err := expenseFromFields(p)
	if err == nil {
		_, err = s.ledger.CreateExpense(ctx, e)
	}
	if err != nil {
		if core.IsValidationError(err) {
			JSONError(http.StatusBadRequest, validationMessage(err)).Write(w)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save expense",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		JSONError(http.StatusInternalServerError, "Error adding expense").Write(w)
		return
	}

	JSONSuccess(http.StatusCreated, "Expense added successfully").Write(w)
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Expense not found.")
		return
	}
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.renderError(w, r, http.StatusNotFound, "Expense not found.")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load expense",
			log.NewFields().WithOperation(log.OpRead).WithExpense(id, "", "", "", 0).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "We couldn't load this expense. Please try again.")
		return
	}

	form := expenseFormFrom(e)
	form.pageMeta = s.meta("Edit Expense", "budget")
	form.Redirect = "/budget"
	modal := parseBool(r.URL.Query().Get("modal"))
	form.Modal = modal
	s.render(w, r, http.StatusOK, "expense_edit.html", form, modal)
}

func (s *Server) handleEditExpenseSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Expense not found.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	fields := formValues(r.PostForm)

	e, err := expenseFromFields(fields)
	if err == nil {
		e.ID = id
		_, err = s.ledger.UpdateExpense(ctx, e)
	}
	switch {
	case err == nil:
		Redirect(safeRedirect(fields.Get("redirect"), "/budget")).Write(w)
	case errors.Is(err, ports.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "Expense not found.")
	case core.IsValidationError(err):
		form := expenseForm{
			pageMeta:    s.meta("Edit Expense", "budget"),
			ID:          id,
			Date:        fields.Get("date"),
			Category:    fields.Get("category"),
			Description: fields.Get("description"),
			Amount:      fields.Get("amount"),
			Recurring:   fields.Bool("recurring"),
			Frequency:   fields.Get("frequency"),
			Redirect:    "/budget",
			Frequencies: frequencies,
		}
		form.Error = validationMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "expense_edit.html", form, false)
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Failed to update expense",
			log.NewFields().WithOperation(log.OpUpdate).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "Error updating expense. Please try again.")
	}
}

// handleTogglePaid flips the paid flag. Script clients get the new state as
// JSON; a plain form post is redirected back to the page it came from.
func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asJSON := wantsJSON(r)
	id, ok := idParam(r)
	if !ok {
		s.togglePaidFailure(w, r, asJSON, http.StatusNotFound, "Expense not found")
		return
	}

	e, err := s.ledger.TogglePaid(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.togglePaidFailure(w, r, asJSON, http.StatusNotFound, "Expense not found")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to toggle paid",
			log.NewFields().WithOperation(log.OpTogglePaid).WithError(err).ToSlice()...)
		s.togglePaidFailure(w, r, asJSON, http.StatusInternalServerError, "Could not update the expense")
		return
	}

	if !asJSON {
		Redirect(safeRedirect(r.FormValue("redirect"), "/budget")).Write(w)
		return
	}
	state := "unpaid"
	if e.Paid {
		state = "paid"
	}
	paid := e.Paid
	NewResponse().JSON(apiResult{
		Success: true,
		Message: fmt.Sprintf("Expense marked as %s", state),
		Paid:    &paid,
	}).Write(w)
}

func (s *Server) togglePaidFailure(w http.ResponseWriter, r *http.Request, asJSON bool, status int, msg string) {
	if asJSON {
		JSONFailure(status, msg).Write(w)
		return
	}
	s.renderError(w, r, status, msg+".")
}
