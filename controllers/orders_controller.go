package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satyam-chhatrala/gamma-ortho/catalog"
	"github.com/satyam-chhatrala/gamma-ortho/dto"
	"github.com/satyam-chhatrala/gamma-ortho/mailer"
)

// orderReference builds a short human-readable reference the customer can
// quote in follow-ups. Orders are not persisted, so the reference only has
// to be unique enough for a mail thread.
func orderReference() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// PlaceOrder relays a customer order to the sales inbox. Items are enriched
// with the current catalog entry when the product still exists; lines that
// no longer resolve are forwarded as submitted so the order is never lost.
func PlaceOrder(repo catalog.Repository, mail mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateOrderInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !mail.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mail delivery is not configured"})
			return
		}

		reference := orderReference()

		var sb strings.Builder
		fmt.Fprintf(&sb, "New order %s\n\n", reference)
		fmt.Fprintf(&sb, "Customer: %s <%s>\n", body.FullName, body.Email)
		if body.Phone != "" {
			fmt.Fprintf(&sb, "Phone:    %s\n", body.Phone)
		}
		if body.Hospital != "" {
			fmt.Fprintf(&sb, "Hospital: %s\n", body.Hospital)
		}
		if body.City != "" {
			fmt.Fprintf(&sb, "City:     %s\n", body.City)
		}

		sb.WriteString("\nItems:\n")
		for _, item := range body.Items {
			sb.WriteString(orderLine(c, repo, item))
		}

		if msg := strings.TrimSpace(body.Message); msg != "" {
			fmt.Fprintf(&sb, "\nMessage:\n%s\n", msg)
		}

		if err := mail.Send("New order "+reference, sb.String()); err != nil {
			zap.S().Errorw("order mail failed", "reference", reference, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver the order, please try again"})
			return
		}

		zap.S().Infow("order relayed", "reference", reference, "items", len(body.Items))
		c.JSON(http.StatusAccepted, gin.H{
			"reference": reference,
			"message":   "Your order has been submitted. We will get back to you shortly.",
		})
	}
}

// orderLine renders one order item, looking the product up best-effort.
func orderLine(c *gin.Context, repo catalog.Repository, item dto.OrderItemInput) string {
	product, err := repo.FindByID(c.Request.Context(), item.ProductID)
	if err != nil {
		return fmt.Sprintf("  - [product %s] (%s) x %d\n", item.ProductID, item.DimensionName, item.Quantity)
	}

	for _, d := range product.Dimensions {
		if d.DimensionName == item.DimensionName {
			return fmt.Sprintf("  - %s (%s) x %d @ %.2f\n", product.Name, d.DimensionName, item.Quantity, d.BasePrice)
		}
	}
	return fmt.Sprintf("  - %s (%s, unlisted size) x %d\n", product.Name, item.DimensionName, item.Quantity)
}

// CreateInquiry relays a general contact-form message to the sales inbox.
func CreateInquiry(mail mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateInquiryInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !mail.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mail delivery is not configured"})
			return
		}

		subject := strings.TrimSpace(body.Subject)
		if subject == "" {
			subject = "General inquiry"
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "From:  %s <%s>\n", body.FullName, body.Email)
		if body.Phone != "" {
			fmt.Fprintf(&sb, "Phone: %s\n", body.Phone)
		}
		fmt.Fprintf(&sb, "\n%s\n", body.Message)

		if err := mail.Send("Website inquiry: "+subject, sb.String()); err != nil {
			zap.S().Errorw("inquiry mail failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver the inquiry, please try again"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message": "Your inquiry has been submitted. We will get back to you shortly.",
		})
	}
}
