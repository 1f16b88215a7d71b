package browser

import (
	"encoding/json"
	"fmt"
)

// In-page scans. Each script is an IIFE-style arrow function evaluated
// in the page; the result shapes are fixed contracts decoded into the
// typed structs below.

const missingAltScanJS = `
() => {
	const images = Array.from(document.querySelectorAll('img'));
	return images
		.filter(img => !img.hasAttribute('alt') || img.getAttribute('alt').trim() === '')
		.map(img => ({
			element: 'img',
			src: img.getAttribute('src'),
			location: {
				x: img.getBoundingClientRect().x,
				y: img.getBoundingClientRect().y
			}
		}));
}`

const unlabeledInputScanJS = `
() => {
	const inputs = Array.from(document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"])'));
	return inputs
		.filter(input => {
			const id = input.getAttribute('id');
			if (!id) return true;

			const hasLabel = document.querySelector('label[for="' + id + '"]');
			const hasAriaLabel = input.hasAttribute('aria-label') && input.getAttribute('aria-label').trim() !== '';
			const hasAriaLabelledBy = input.hasAttribute('aria-labelledby') && input.getAttribute('aria-labelledby').trim() !== '';

			return !hasLabel && !hasAriaLabel && !hasAriaLabelledBy;
		})
		.map(input => ({
			element: 'input',
			type: input.getAttribute('type') || 'text',
			id: input.getAttribute('id'),
			name: input.getAttribute('name'),
			location: {
				x: input.getBoundingClientRect().x,
				y: input.getBoundingClientRect().y
			}
		}));
}`

// ariaTreeScanJS walks the DOM and reports elements carrying a role or
// accessible name, producing a flat outline of the page's accessible
// structure.
const ariaTreeScanJS = `
() => {
	const out = [];
	const walk = (node, depth) => {
		if (!(node instanceof Element)) return;
		const role = node.getAttribute('role') ||
			({A: 'link', BUTTON: 'button', INPUT: 'textbox', IMG: 'img',
			  H1: 'heading', H2: 'heading', H3: 'heading', H4: 'heading',
			  H5: 'heading', H6: 'heading', NAV: 'navigation', MAIN: 'main',
			  FORM: 'form', TABLE: 'table'}[node.tagName] || '');
		const name = node.getAttribute('aria-label') ||
			(node.tagName === 'IMG' ? (node.getAttribute('alt') || '') : '');
		if (role) {
			out.push({
				role: role,
				name: name || (node.textContent || '').trim().substring(0, 80),
				depth: depth
			});
		}
		for (const child of node.children) walk(child, depth + 1);
	};
	walk(document.body, 0);
	return out.slice(0, 200);
}`

const overflowScanJS = `
() => {
	const body = document.body;
	const windowWidth = window.innerWidth;
	const bodyWidth = body.scrollWidth;

	if (bodyWidth > windowWidth) {
		return [{
			element: 'body',
			width: bodyWidth,
			right: bodyWidth,
			windowWidth: windowWidth,
			difference: bodyWidth - windowWidth
		}];
	}

	const allElements = Array.from(document.querySelectorAll('*'));
	return allElements
		.filter(el => {
			const rect = el.getBoundingClientRect();
			return rect.right > windowWidth + 5;
		})
		.map(el => ({
			element: el.tagName.toLowerCase(),
			class: el.className,
			id: el.id,
			width: el.getBoundingClientRect().width,
			right: el.getBoundingClientRect().right,
			windowWidth: windowWidth,
			difference: el.getBoundingClientRect().right - windowWidth
		}))
		.slice(0, 5);
}`

const tapTargetScanJS = `
() => {
	const MIN_TAP_SIZE = 44;
	const interactiveElements = Array.from(document.querySelectorAll('a, button, [role="button"], input, select, textarea'));
	return interactiveElements
		.filter(el => {
			const rect = el.getBoundingClientRect();
			return (rect.width < MIN_TAP_SIZE || rect.height < MIN_TAP_SIZE) &&
				(rect.width > 0 && rect.height > 0);
		})
		.map(el => ({
			element: el.tagName.toLowerCase(),
			type: el.getAttribute('type'),
			id: el.id,
			class: el.className,
			width: el.getBoundingClientRect().width,
			height: el.getBoundingClientRect().height,
			text: el.textContent.trim().substring(0, 20)
		}))
		.slice(0, 10);
}`

const formSecurityScanJS = `
() => {
	return Array.from(document.forms).map(form => ({
		action: form.action,
		method: form.method,
		hasPassword: Array.from(form.elements).some(el => el.type === 'password')
	}));
}`

const formFieldScanJS = `
(formSelector) => {
	const formEl = formSelector ? document.querySelector(formSelector) : document.forms[0];
	if (!formEl) return [];

	return Array.from(formEl.elements)
		.filter(el => el.tagName === 'INPUT' || el.tagName === 'SELECT' || el.tagName === 'TEXTAREA')
		.filter(el => !['submit', 'button', 'image', 'reset', 'file', 'hidden'].includes(el.type))
		.map(el => {
			const label = el.id ? document.querySelector('label[for="' + el.id + '"]') : null;
			return {
				type: el.type || 'text',
				name: el.name,
				id: el.id,
				placeholder: el.placeholder,
				label: label ? label.textContent.trim() : null,
				required: el.required,
				selector: el.id ? '#' + el.id : '[name="' + el.name + '"]',
				tag: el.tagName.toLowerCase()
			};
		});
}`

// formFieldScanScript binds the optional form selector into the scan
// as a JSON string literal and immediately invokes it.
func formFieldScanScript(formSelector string) string {
	sel := "null"
	if formSelector != "" {
		quoted, err := json.Marshal(formSelector)
		if err == nil {
			sel = string(quoted)
		}
	}
	return fmt.Sprintf("(%s)(%s)", formFieldScanJS, sel)
}

const loginIndicatorScanJS = `
() => {
	const texts = ['Logout', 'Log out', 'Sign out'];
	const hasLogout = Array.from(document.querySelectorAll('a, button'))
		.some(el => texts.some(t => (el.textContent || '').trim() === t));

	const errors = ['Invalid username', 'Invalid password', 'Login failed', 'Incorrect credentials'];
	const bodyText = document.body ? (document.body.textContent || '') : '';
	const hasError = errors.some(t => bodyText.includes(t));

	return { hasLogout: hasLogout, hasError: hasError };
}`

const userAgentJS = `() => navigator.userAgent`

// ElementLocation is an element's position in the viewport.
type ElementLocation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MissingAltImage describes an image with no meaningful alt text.
type MissingAltImage struct {
	Element  string          `json:"element"`
	Src      string          `json:"src"`
	Location ElementLocation `json:"location"`
}

// UnlabeledInput describes a visible input with no associated label.
type UnlabeledInput struct {
	Element  string          `json:"element"`
	Type     string          `json:"type"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Location ElementLocation `json:"location"`
}

// AriaNode is one entry in the page's accessible outline.
type AriaNode struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// OverflowingElement describes an element extending past the viewport.
type OverflowingElement struct {
	Element     string  `json:"element"`
	Class       string  `json:"class,omitempty"`
	ID          string  `json:"id,omitempty"`
	Width       float64 `json:"width"`
	Right       float64 `json:"right"`
	WindowWidth float64 `json:"windowWidth"`
	Difference  float64 `json:"difference"`
}

// SmallTapTarget describes an interactive element below the minimum
// recommended tap size.
type SmallTapTarget struct {
	Element string  `json:"element"`
	Type    string  `json:"type,omitempty"`
	ID      string  `json:"id,omitempty"`
	Class   string  `json:"class,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Text    string  `json:"text"`
}

// FormSecurityInfo describes one form's submission target.
type FormSecurityInfo struct {
	Action      string `json:"action"`
	Method      string `json:"method"`
	HasPassword bool   `json:"hasPassword"`
}

// FormFieldInfo describes one fillable field found in a form.
type FormFieldInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	ID          string `json:"id"`
	Placeholder string `json:"placeholder"`
	Label       string `json:"label"`
	Required    bool   `json:"required"`
	Selector    string `json:"selector"`
	Tag         string `json:"tag"`
}

// loginIndicators is the result of the login success heuristic scan.
type loginIndicators struct {
	HasLogout bool `json:"hasLogout"`
	HasError  bool `json:"hasError"`
}

// decodeScan converts an Evaluate result into the scan's typed shape
// with a JSON round trip. A nil result decodes to the zero value.
func decodeScan[T any](raw any) (T, error) {
	var out T
	if raw == nil {
		return out, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("scan result not JSON-compatible: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unexpected scan result shape: %w", err)
	}
	return out, nil
}

// runScan evaluates script in the page and decodes its result.
func runScan[T any](page Pager, script string) (T, error) {
	raw, err := page.Evaluate(script)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeScan[T](raw)
}
