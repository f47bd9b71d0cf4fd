package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/config"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

type formKind int

const (
	formNone formKind = iota
	formExpense
)

type expenseValues struct {
	amount      string
	category    model.Category
	description string
}

var categories = []model.Category{
	model.CategoryFood,
	model.CategoryTransport,
	model.CategoryShopping,
	model.CategoryEntertainment,
	model.CategoryBills,
	model.CategoryHealth,
	model.CategoryEducation,
	model.CategoryOther,
}

var frequencies = []model.Frequency{
	model.FrequencyWeekly,
	model.FrequencyBiweekly,
	model.FrequencyMonthly,
	model.FrequencyQuarterly,
	model.FrequencyYearly,
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, cli.Currency)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("enter a number")
	}
	if v <= 0 {
		return 0, errors.New("must be greater than zero")
	}
	return v, nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func categoryOptions() []huh.Option[model.Category] {
	opts := make([]huh.Option[model.Category], len(categories))
	for i, c := range categories {
		opts[i] = huh.NewOption(c.Label(), c)
	}
	return opts
}

func frequencyOptions() []huh.Option[model.Frequency] {
	opts := make([]huh.Option[model.Frequency], len(frequencies))
	for i, f := range frequencies {
		opts[i] = huh.NewOption(string(f), f)
	}
	return opts
}

func newExpenseForm(v *expenseValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Amount").
				Prompt(cli.Currency+" ").
				Value(&v.amount).
				Validate(validateAmount),
			huh.NewSelect[model.Category]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&v.category),
			huh.NewInput().
				Title("Description").
				Placeholder("optional").
				CharLimit(120).
				Value(&v.description),
		).Title("New expense"),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func (a App) openExpenseForm() (tea.Model, tea.Cmd) {
	a.expense = &expenseValues{category: model.CategoryFood}
	a.form = newExpenseForm(a.expense)
	a.formKind = formExpense
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 72)).WithHeight(a.height)
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		var submit tea.Cmd
		if a.formKind == formExpense {
			submit = a.submitExpense(*a.expense)
		}
		a.form, a.formKind, a.expense = nil, formNone, nil
		return a, submit
	case huh.StateAborted:
		a.form, a.formKind, a.expense = nil, formNone, nil
		return a, nil
	}
	return a, cmd
}

func (a App) submitExpense(v expenseValues) tea.Cmd {
	return a.act(func(e *engine.Engine) (string, error) {
		amount, err := parseAmount(v.amount)
		if err != nil {
			return "", err
		}
		exp, err := e.AddExpense(ledger.ExpenseInput{
			Amount:      amount,
			Category:    v.category,
			Description: strings.TrimSpace(v.description),
			Source:      model.SourceManual,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s on %s", cli.FormatMoney(exp.Amount), exp.Category.Label()), nil
	})
}

// SetupValues holds the answers collected by the setup wizard.
type SetupValues struct {
	Salary    string
	Frequency model.Frequency
	Currency  string
	Theme     string

	DailyReminders bool
	QuietHours     bool

	SMTPEnabled bool
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPFrom    string
	SMTPTo      string
}

// SetupValuesFrom seeds the wizard from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Frequency:      model.FrequencyMonthly,
		Currency:       cfg.General.Currency,
		Theme:          cfg.Appearance.Theme,
		DailyReminders: cfg.Notifications.DailyReminders,
		QuietHours:     cfg.Notifications.QuietHours.Enabled,
		SMTPEnabled:    cfg.SMTP.Enabled,
		SMTPHost:       cfg.SMTP.Host,
		SMTPPort:       strconv.Itoa(cfg.SMTP.Port),
		SMTPUser:       cfg.SMTP.Username,
		SMTPFrom:       cfg.SMTP.From,
		SMTPTo:         cfg.SMTP.To,
	}
}

// NewSetupForm builds the first-run wizard. The salary may be left blank to
// keep the current one.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themes[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fueltank").
				Description("Your balance is a fuel tank. Set your income and\nfueltank will tell you how many days it lasts."),
			huh.NewInput().
				Title("Currency symbol").
				CharLimit(4).
				Value(&v.Currency),
			huh.NewInput().
				Title("Salary").
				Description("Leave blank to keep the current salary.").
				Value(&v.Salary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateAmount(s)
				}),
			huh.NewSelect[model.Frequency]().
				Title("Paid").
				Options(frequencyOptions()...).
				Value(&v.Frequency),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Daily check-in reminder?").
				Value(&v.DailyReminders),
			huh.NewConfirm().
				Title("Silence alerts during quiet hours (22:00-07:00)?").
				Value(&v.QuietHours),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Send alerts by email?").
				Value(&v.SMTPEnabled),
		),
		huh.NewGroup(
			huh.NewInput().Title("SMTP host").Value(&v.SMTPHost),
			huh.NewInput().Title("SMTP port").Value(&v.SMTPPort).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(s); err != nil {
						return errors.New("enter a port number")
					}
					return nil
				}),
			huh.NewInput().Title("SMTP username").Value(&v.SMTPUser),
			huh.NewInput().Title("From address").Value(&v.SMTPFrom),
			huh.NewInput().Title("Send alerts to").Value(&v.SMTPTo),
			huh.NewNote().Description("Put the SMTP password in " + config.EnvSMTPPassword + "."),
		).WithHideFunc(func() bool { return !v.SMTPEnabled }),
	).WithTheme(huh.ThemeCharm())
}

// Apply writes the answers into cfg and returns the salary to set, if any.
func (v SetupValues) Apply(cfg *config.Config) (salary float64, err error) {
	if c := strings.TrimSpace(v.Currency); c != "" {
		cfg.General.Currency = c
	}
	cfg.Appearance.Theme = v.Theme
	cfg.Notifications.DailyReminders = v.DailyReminders
	cfg.Notifications.QuietHours.Enabled = v.QuietHours

	cfg.SMTP.Enabled = v.SMTPEnabled
	if v.SMTPEnabled {
		port, err := strconv.Atoi(v.SMTPPort)
		if err != nil {
			return 0, fmt.Errorf("smtp port %q: %w", v.SMTPPort, err)
		}
		cfg.SMTP.Host = strings.TrimSpace(v.SMTPHost)
		cfg.SMTP.Port = port
		cfg.SMTP.Username = strings.TrimSpace(v.SMTPUser)
		cfg.SMTP.From = strings.TrimSpace(v.SMTPFrom)
		cfg.SMTP.To = strings.TrimSpace(v.SMTPTo)
	}

	if strings.TrimSpace(v.Salary) == "" {
		return 0, nil
	}
	return parseAmount(v.Salary)
}
