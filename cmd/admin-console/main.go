// Command admin-console is a terminal front end for the storefront admin
// API: browse orders, move them through the status machine and check weekly
// sales. It only talks HTTP; it never touches the database.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

type orderRow struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	User        struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

type weeklySale struct {
	Week         int   `json:"week"`
	TotalRevenue int64 `json:"totalRevenue"`
	OrderCount   int   `json:"orderCount"`
}

type salesReport struct {
	WeeklySales []weeklySale `json:"weeklySales"`
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type ordersLoaded struct {
	orders []orderRow
	err    error
}

type salesLoaded struct {
	report salesReport
	err    error
}

type transitionDone struct {
	err error
}

type model struct {
	client   *apiClient
	orders   []orderRow
	cursor   int
	sales    *salesReport
	status   string
	busy     bool
	showSale bool
}

func initialModel(client *apiClient) model {
	return model{client: client, status: "Loading orders..."}
}

func (m model) Init() tea.Cmd {
	return loadOrdersCmd(m.client)
}

func loadOrdersCmd(c *apiClient) tea.Cmd {
	return func() tea.Msg {
		var orders []orderRow
		err := c.do(http.MethodGet, "/orders", nil, &orders)
		return ordersLoaded{orders: orders, err: err}
	}
}

func loadSalesCmd(c *apiClient) tea.Cmd {
	return func() tea.Msg {
		var report salesReport
		err := c.do(http.MethodGet, "/orders/sales", nil, &report)
		return salesLoaded{report: report, err: err}
	}
}

func setStatusCmd(c *apiClient, orderID, status string) tea.Cmd {
	return func() tea.Msg {
		err := c.do(http.MethodPatch, "/orders/"+orderID, map[string]string{"status": status}, nil)
		return transitionDone{err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.cursor < len(m.orders)-1 {
				m.cursor++
			}
		case "r":
			m.busy = true
			m.status = "Refreshing..."
			return m, loadOrdersCmd(m.client)
		case "s":
			m.showSale = !m.showSale
			if m.showSale {
				m.busy = true
				m.status = "Loading sales..."
				return m, loadSalesCmd(m.client)
			}
		case "c", "d", "x":
			if m.busy || len(m.orders) == 0 {
				return m, nil
			}
			target := map[string]string{"c": "confirmed", "d": "delivered", "x": "cancelled"}[msg.String()]
			m.busy = true
			m.status = fmt.Sprintf("Setting %s -> %s...", shortID(m.orders[m.cursor].ID), target)
			return m, setStatusCmd(m.client, m.orders[m.cursor].ID, target)
		}
	case ordersLoaded:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.orders = msg.orders
		if m.cursor >= len(m.orders) {
			m.cursor = 0
		}
		m.status = fmt.Sprintf("%d orders", len(m.orders))
	case salesLoaded:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		report := msg.report
		m.sales = &report
		m.status = "Sales loaded"
	case transitionDone:
		if msg.err != nil {
			m.busy = false
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = "Updated"
		return m, loadOrdersCmd(m.client)
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "storefront admin console")
	fmt.Fprintln(b, "")

	if m.showSale && m.sales != nil {
		fmt.Fprintln(b, "Weekly sales (delivered orders, trailing 30 days):")
		if len(m.sales.WeeklySales) == 0 {
			fmt.Fprintln(b, "  no delivered orders in window")
		}
		for _, ws := range m.sales.WeeklySales {
			fmt.Fprintf(b, "  week %2d  revenue %12s  orders %d\n", ws.Week, money(ws.TotalRevenue), ws.OrderCount)
		}
	} else {
		fmt.Fprintln(b, "Orders (newest first):")
		for i, o := range m.orders {
			marker := " "
			if i == m.cursor {
				marker = ">"
			}
			fmt.Fprintf(b, " %s %s  %-9s  %10s  %s\n", marker, shortID(o.ID), o.Status, money(o.TotalAmount), o.User.Email)
		}
		if len(m.orders) == 0 {
			fmt.Fprintln(b, "  (none)")
		}
	}

	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down select, c confirm, d deliver, x cancel, s sales, r refresh, q quit")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func money(minor int64) string {
	return fmt.Sprintf("Rs %d.%02d", minor/100, minor%100)
}

func main() {
	addr := flag.String("addr", getenv("STOREFRONT_ADDR", "http://localhost:8080"), "storefront base URL")
	token := flag.String("token", getenv("ADMIN_TOKEN", ""), "admin bearer token")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "admin token required (-token or ADMIN_TOKEN)")
		os.Exit(1)
	}

	client := &apiClient{
		baseURL: strings.TrimRight(*addr, "/"),
		token:   *token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := tea.NewProgram(initialModel(client)).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
