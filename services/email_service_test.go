package services

import (
	"testing"

	"loanmanagement/amortization"
	"loanmanagement/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverdueReminderBody_EscapesName(t *testing.T) {
	overdue := []ScheduleRow{
		{ScheduleEntry: amortization.ScheduleEntry{Period: 2, DueDate: date(2024, 3, 15), Payment: dec("856.07")}},
	}

	body := overdueReminderBody(`<script>alert("x")</script> & Co`, 7, overdue)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Dear &lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; Co,")
	assert.Contains(t, body, "loan #7")
	assert.Contains(t, body, "<tr><td>2</td><td>2024-03-15</td><td>$856.07</td></tr>")
}

func TestEmailService_DisabledSkipsDelivery(t *testing.T) {
	cfg := &config.Config{}
	cfg.SMTP.Enabled = false
	svc := NewEmailService(cfg)

	require.NoError(t, svc.SendOverdueReminder("john@example.com", "John Doe", 1, nil))
	require.NoError(t, svc.SendLoanPaidNotification("john@example.com", 1))
}
