package services

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"loanmanagement/utils"

	"github.com/beevik/etree"
	"github.com/go-pdf/fpdf"
)

const (
	marginLeft   = 15.0
	marginTop    = 15.0
	marginRight  = 15.0
	marginBottom = 20.0
	contentWidth = 210.0 - marginLeft - marginRight
)

// Колонки таблицы графика в PDF
var scheduleColumns = []struct {
	title string
	width float64
}{
	{"#", 12},
	{"Due date", 28},
	{"Payment", 30},
	{"Principal", 30},
	{"Interest", 28},
	{"Balance", 32},
	{"Status", 20},
}

// ReportService выгружает график платежей в PDF и XML
type ReportService struct{}

func NewReportService() *ReportService {
	return &ReportService{}
}

// SchedulePDF формирует PDF с итогами и графиком платежей
func (s *ReportService) SchedulePDF(details *LoanDetails) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()

	// Заголовок
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 10, fmt.Sprintf("Loan #%d amortization schedule", details.Loan.ID), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(contentWidth, 6, "Generated: "+time.Now().Format("2 January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Итоги
	borrower := "-"
	if details.Borrower != nil {
		borrower = details.Borrower.Name
	}
	summary := [][2]string{
		{"Borrower", borrower},
		{"Loan amount", utils.FormatCurrency(details.Loan.Amount)},
		{"Interest rate", details.Loan.InterestRate.StringFixed(2) + "%"},
		{"Term", fmt.Sprintf("%d months", details.Loan.TermMonths)},
		{"Monthly payment", utils.FormatCurrency(details.Summary.MonthlyPayment)},
		{"Total repayment", utils.FormatCurrency(details.Summary.TotalRepayment)},
		{"Total interest", utils.FormatCurrency(details.Summary.TotalInterest)},
		{"Paid so far", utils.FormatCurrency(details.TotalPaid)},
		{"Remaining balance", utils.FormatCurrency(details.RemainingBalance)},
	}

	pdf.SetFillColor(245, 247, 250)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetTextColor(50, 50, 50)
	for _, row := range summary {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(contentWidth-60, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Таблица графика
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(0, 51, 102)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range scheduleColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(50, 50, 50)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, r := range details.Schedule {
		if pdf.GetY()+6 > pageHeight-marginBottom {
			pdf.AddPage()
			header()
		}

		fill := r.Status == StatusPaid
		pdf.SetFillColor(223, 240, 216)
		cells := []string{
			strconv.Itoa(r.Period),
			r.DueDate.Format("2006-01-02"),
			utils.FormatCurrency(r.Payment),
			utils.FormatCurrency(r.Principal),
			utils.FormatCurrency(r.Interest),
			utils.FormatCurrency(r.Balance),
			string(r.Status),
		}
		for i, c := range scheduleColumns {
			align := "R"
			if i == 0 || i == len(scheduleColumns)-1 {
				align = "C"
			}
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка формирования PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// ScheduleXML формирует XML документ с итогами и графиком платежей
func (s *ReportService) ScheduleXML(details *LoanDetails) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("schedule")
	root.CreateAttr("loan-id", strconv.FormatUint(uint64(details.Loan.ID), 10))
	root.CreateAttr("amount", details.Loan.Amount.StringFixed(2))
	root.CreateAttr("rate", details.Loan.InterestRate.StringFixed(2))
	root.CreateAttr("term-months", strconv.Itoa(details.Loan.TermMonths))

	summary := root.CreateElement("summary")
	summary.CreateElement("monthly-payment").SetText(details.Summary.MonthlyPayment.StringFixed(2))
	summary.CreateElement("total-repayment").SetText(details.Summary.TotalRepayment.StringFixed(2))
	summary.CreateElement("total-interest").SetText(details.Summary.TotalInterest.StringFixed(2))
	summary.CreateElement("total-paid").SetText(details.TotalPaid.StringFixed(2))
	summary.CreateElement("remaining-balance").SetText(details.RemainingBalance.StringFixed(2))

	for _, r := range details.Schedule {
		entry := root.CreateElement("entry")
		entry.CreateAttr("period", strconv.Itoa(r.Period))
		entry.CreateAttr("due-date", r.DueDate.Format("2006-01-02"))
		entry.CreateAttr("payment", r.Payment.StringFixed(2))
		entry.CreateAttr("principal", r.Principal.StringFixed(2))
		entry.CreateAttr("interest", r.Interest.StringFixed(2))
		entry.CreateAttr("balance", r.Balance.StringFixed(2))
		entry.CreateAttr("status", string(r.Status))
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования XML: %w", err)
	}
	return data, nil
}
