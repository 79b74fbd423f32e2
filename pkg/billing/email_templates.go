package billing

import (
	"fmt"
	"strings"
)

// buildPlanActivatedEmail returns the email content for a paid plan activation.
func buildPlanActivatedEmail(plan Plan, baseURL string) (subject, html, plainText string) {
	subject = fmt.Sprintf("Your Levrix %s plan is active", plan.Name)

	var items, lines strings.Builder
	for _, f := range plan.Features {
		fmt.Fprintf(&items, "<li>%s</li>", f)
		fmt.Fprintf(&lines, "- %s\n", f)
	}

	html = fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome to %s</h2>
			<p>Your subscription (%s) is now active. Here's what you get:</p>
			<ul>%s</ul>
			<p><a href="%s/dashboard" style="background-color: #10b981; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Open Levrix</a></p>
			<p>The Levrix Team</p>
		</body>
		</html>
	`, plan.Name, plan.PriceLabel(), items.String(), baseURL)

	plainText = fmt.Sprintf(`Welcome to %s

Your subscription (%s) is now active. Here's what you get:

%s
Open Levrix: %s/dashboard

The Levrix Team
`, plan.Name, plan.PriceLabel(), lines.String(), baseURL)

	return
}

// buildPlanCancelledEmail returns the email content for a cancelled subscription.
func buildPlanCancelledEmail(fallback Plan, baseURL string) (subject, html, plainText string) {
	subject = "Your Levrix subscription has been cancelled"

	html = fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription Cancelled</h2>
			<p>Your workspace has moved to the %s plan. Your leads are kept.</p>
			<p><a href="%s/settings?tab=billing" style="background-color: #0f172a; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Change plan</a></p>
			<p>The Levrix Team</p>
		</body>
		</html>
	`, fallback.Name, baseURL)

	plainText = fmt.Sprintf(`Your workspace has moved to the %s plan. Your leads are kept.

Change plan: %s/settings?tab=billing

The Levrix Team
`, fallback.Name, baseURL)

	return
}
