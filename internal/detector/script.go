package detector

import (
	"encoding/json"
	"fmt"
)

// Script renders the in-browser equivalent of the detector engine: a
// self-contained expression evaluating to a Promise that resolves with the
// signed-integer outcome. The live runner evaluates it through chromedp
// with await-promise semantics.
//
// The generated routine mirrors Start/onMutation/finish exactly: marker
// element in the main document, one MutationObserver per reachable document
// body with frames re-enumerated on every mutation, eager first pass, error
// selectors only for the main document and frames rooted at their body, and
// all observers disconnected before resolving.
func Script(targets, errorSelectors []string) (string, error) {
	errs := make([]string, 0, len(errorSelectors)+1)
	errs = append(errs, errorSelectors...)
	errs = append(errs, BrowserErrorSelector)

	targetJSON, err := json.Marshal(targets)
	if err != nil {
		return "", fmt.Errorf("failed to encode target selectors: %w", err)
	}
	errorJSON, err := json.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("failed to encode error selectors: %w", err)
	}
	markerJSON, err := json.Marshal("readiness-marker-" + randomSuffix())
	if err != nil {
		return "", err
	}

	script := fmt.Sprintf(`new Promise((resolve) => {
	const targets = %s;
	const errors = %s;
	let done = false;
	const observers = [];

	const marker = document.createElement("div");
	marker.id = %s;
	marker.style.display = "none";
	document.body.appendChild(marker);

	const onUnload = () => {
		console.warn("page attempted to unload during readiness wait");
	};

	const finish = (value) => {
		if (done) return;
		done = true;
		for (const observer of observers) observer.disconnect();
		window.removeEventListener("beforeunload", onUnload);
		resolve(value);
	};

	const docs = () => {
		const list = [{doc: document, main: true, rootIsBody: true}];
		for (let i = 0; i < window.frames.length; i++) {
			try {
				const doc = window.frames[i].document;
				if (doc && doc.body) {
					list.push({doc: doc, main: false, rootIsBody: true});
				}
			} catch (err) {
				// Cross-origin frame, skipped.
			}
		}
		return list;
	};

	const check = () => {
		if (done) return;
		for (const entry of docs()) {
			for (let i = 0; i < targets.length; i++) {
				if (entry.doc.querySelector(targets[i])) return finish(i);
			}
			if (!entry.main && !entry.rootIsBody) continue;
			for (let i = 0; i < errors.length; i++) {
				if (entry.doc.querySelector(errors[i])) return finish(-(i + 1));
			}
		}
		if (!document.getElementById(marker.id)) {
			console.warn("readiness marker disappeared, page subtree was replaced");
		}
	};

	const observed = new Set();
	const attach = () => {
		for (const entry of docs()) {
			if (observed.has(entry.doc)) continue;
			observed.add(entry.doc);
			const observer = new MutationObserver(() => {
				if (done) return;
				attach();
				check();
			});
			observer.observe(entry.doc.body, {childList: true, subtree: true});
			observers.push(observer);
		}
	};

	window.addEventListener("beforeunload", onUnload);

	attach();
	check();
})`, targetJSON, errorJSON, markerJSON)

	return script, nil
}
