package cli

import (
	"strconv"

	"cakeshop/internal/delivery/cli/output"
	"cakeshop/internal/domain"
	"cakeshop/internal/usecase"
)

const (
	textLoadingProducts = "Loading products..."
	textLoadingCart     = "Loading..."
	textEmptyCart       = "Your cart is empty."
	textNoProducts      = "No cakes on sale right now."
)

func renderProducts(p *output.Printer, state usecase.CatalogState) error {
	if len(state.Products) == 0 {
		p.Print(textNoProducts)
		return nil
	}
	table := output.NewTable(p.Out(), []string{"id", "name", "description", "price", "image"}, 3)
	for _, prod := range state.Products {
		table.AddRow(
			strconv.FormatInt(prod.ID, 10),
			prod.Name,
			prod.Description,
			domain.FormatPrice(prod.Price),
			prod.ImageURL,
		)
	}
	return table.Render()
}

func renderCart(p *output.Printer, state usecase.CartState) error {
	p.Header("Your cart")
	if state.Err != nil {
		p.Error("Could not load cart: %s", domain.UserMessage(state.Err, "please try again"))
		return nil
	}

	if state.Empty() {
		p.Print(textEmptyCart)
		if !state.Authenticated {
			p.Print(p.Dim("Sign in to see the cart saved to your account."))
		}
	} else {
		table := output.NewTable(p.Out(), []string{"item", "price", "qty", "subtotal"}, 1, 2, 3)
		for _, it := range state.Items {
			name, price := "(unavailable)", "-"
			if it.Product != nil {
				name = it.Product.Name
				price = domain.FormatPrice(it.Product.Price)
			}
			table.AddRow(name, price, strconv.Itoa(it.Quantity), domain.FormatPrice(it.Subtotal()))
		}
		table.SetFooter("", "", "total", domain.FormatPrice(state.Total))
		if err := table.Render(); err != nil {
			return err
		}
	}

	renderCartStatus(p, state)
	return nil
}

func renderCartStatus(p *output.Printer, state usecase.CartState) {
	switch state.StatusKind {
	case usecase.StatusSuccess:
		p.Success("%s", state.Status)
	case usecase.StatusFailure:
		p.Error("%s", state.Status)
	}
}

// renderNav lists what the user can do in the current session state.
func renderNav(p *output.Printer, authenticated bool) {
	if authenticated {
		p.Print("Signed in")
		p.Print(p.Dim("Commands: products, add, cart, checkout, logout"))
		return
	}
	p.Print("Not signed in")
	p.Print(p.Dim("Commands: products, login, register"))
}
