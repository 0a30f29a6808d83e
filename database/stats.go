package database

import (
	"loanmanagement/models"

	"github.com/shopspring/decimal"
)

const recentLimit = 5

const rateBucketExpr = `CASE
	WHEN interest_rate < 3 THEN 'Below 3%'
	WHEN interest_rate < 5 THEN '3-5%'
	WHEN interest_rate < 7 THEN '5-7%'
	ELSE 'Above 7%'
END`

const termBucketExpr = `CASE
	WHEN term_months <= 6 THEN '0-6 months'
	WHEN term_months <= 12 THEN '7-12 months'
	WHEN term_months <= 24 THEN '13-24 months'
	ELSE 'Over 24 months'
END`

// DashboardStats собирает сводную статистику для панели
func (d *Database) DashboardStats() (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	if err := d.DB.Model(&models.Loan{}).Count(&stats.TotalLoans).Error; err != nil {
		return nil, err
	}
	if err := d.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}

	var err error
	if stats.TotalLoanAmount, err = d.sum(&models.Loan{}); err != nil {
		return nil, err
	}
	if stats.TotalPayments, err = d.sum(&models.Payment{}); err != nil {
		return nil, err
	}

	err = d.DB.Table("loans l").
		Select("l.id, l.user_id, u.name AS user_name, l.amount, l.interest_rate, l.term_months, l.created_at").
		Joins("JOIN users u ON u.id = l.user_id").
		Order("l.created_at DESC, l.id DESC").
		Limit(recentLimit).
		Scan(&stats.RecentLoans).Error
	if err != nil {
		return nil, err
	}

	err = d.DB.Table("payments p").
		Select("p.id, p.loan_id, p.amount, p.payment_date, l.amount AS loan_amount, u.name AS user_name").
		Joins("JOIN loans l ON l.id = p.loan_id").
		Joins("JOIN users u ON u.id = l.user_id").
		Order("p.payment_date DESC, p.id DESC").
		Limit(recentLimit).
		Scan(&stats.RecentPayments).Error
	if err != nil {
		return nil, err
	}

	if stats.RateDistribution, err = d.distribution(rateBucketExpr, models.RateBuckets); err != nil {
		return nil, err
	}
	if stats.TermDistribution, err = d.distribution(termBucketExpr, models.TermBuckets); err != nil {
		return nil, err
	}

	return stats, nil
}

func (d *Database) sum(model interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := d.DB.Model(model).Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	return total, err
}

// distribution считает кредиты по диапазонам, пустые диапазоны включаются с нулем
func (d *Database) distribution(expr string, labels []string) ([]models.Bucket, error) {
	var rows []models.Bucket
	err := d.DB.Model(&models.Loan{}).
		Select(expr + " AS label, COUNT(*) AS count").
		Group("label").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Label] = r.Count
	}

	buckets := make([]models.Bucket, 0, len(labels))
	for _, label := range labels {
		buckets = append(buckets, models.Bucket{Label: label, Count: counts[label]})
	}
	return buckets, nil
}
